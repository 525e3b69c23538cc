// Package nftinfo reads live NFT metadata from the token contracts the
// bridge escrows. The burner's unprocessed-queue query uses it to hand
// the relayer everything it needs to mint the destination-side copy.
package nftinfo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LUCAS95222/HashedV2/agreement"
)

// Provider resolves current metadata of one NFT.
type Provider interface {
	NftInfo(tokenAddr, tokenID string) (*agreement.NftInfo, error)
}

// HTTPProvider queries a chain REST endpoint that proxies the cw721
// NftInfo query: GET {base}/nft/{tokenAddr}/{tokenID} -> NftInfo JSON.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) NftInfo(tokenAddr, tokenID string) (*agreement.NftInfo, error) {
	url := fmt.Sprintf("%s/nft/%s/%s", p.baseURL, tokenAddr, tokenID)
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nft info query returned status %d", resp.StatusCode)
	}

	var info agreement.NftInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		info.ID = tokenID
	}
	return &info, nil
}

// StaticProvider serves metadata from memory. Used in tests and local
// single-process runs where no chain endpoint exists.
type StaticProvider struct {
	mu sync.RWMutex
	m  map[string]*agreement.NftInfo
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{m: make(map[string]*agreement.NftInfo)}
}

func (p *StaticProvider) Add(tokenAddr string, info *agreement.NftInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[tokenAddr+"/"+info.ID] = info
}

func (p *StaticProvider) NftInfo(tokenAddr, tokenID string) (*agreement.NftInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info, ok := p.m[tokenAddr+"/"+tokenID]
	if !ok {
		// unknown tokens still resolve to bare info, the id alone is
		// enough to mint
		return &agreement.NftInfo{ID: tokenID}, nil
	}
	return info, nil
}
