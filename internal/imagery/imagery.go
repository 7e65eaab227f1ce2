// Package imagery turns AI-suggested search keywords into stable image-service
// URLs. The sig parameter pins one image identity per item: the same id always
// resolves to the same picture, different ids diverge even for identical
// keywords.
package imagery

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	imageWidth  = 800
	imageHeight = 600

	// Used when the model hands back an empty or whitespace-only keyword
	// string, so the derived URL is still well-formed.
	fallbackKeywords = "dream,success"
)

type Deriver struct {
	baseURL string
}

// NewDeriver creates a Deriver for the given image-service base URL
// (e.g. "https://loremflickr.com"). A trailing slash is tolerated.
func NewDeriver(baseURL string) *Deriver {
	return &Deriver{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// PrimaryURL derives the main image URL for an item from its raw keyword
// string. The sig is the item id itself.
func (d *Deriver) PrimaryURL(keywords, itemID string) string {
	return d.build(keywords, itemID)
}

// AdditionalURL derives the URL for the index-th additional image. The sig is
// disambiguated by position so repeated keywords still yield distinct images.
func (d *Deriver) AdditionalURL(keywords, itemID string, index int) string {
	return d.build(keywords, fmt.Sprintf("%s_%d", itemID, index))
}

// FallbackURL is the generic URL a consumer should fall back to when the
// primary URL fails to load. It keeps the item's sig so the fallback is
// stable per item too.
func (d *Deriver) FallbackURL(itemID string) string {
	return d.build("dream vision", itemID)
}

// AdditionalFallbackURL is the fallback for the index-th additional image
// slot, with the same position-disambiguated sig as AdditionalURL.
func (d *Deriver) AdditionalFallbackURL(itemID string, index int) string {
	return d.build("goal success", fmt.Sprintf("%s_%d", itemID, index))
}

func (d *Deriver) build(keywords, sig string) string {
	kw := JoinKeywords(keywords)
	if kw == "" {
		kw = fallbackKeywords
	}
	return fmt.Sprintf("%s/%d/%d/%s?sig=%s",
		d.baseURL, imageWidth, imageHeight, url.PathEscape(kw), url.QueryEscape(sig))
}

// JoinKeywords collapses a space-separated keyword string into the
// comma-joined form the image service expects. Surrounding and repeated
// whitespace is dropped; an empty result means the input had no usable tokens.
func JoinKeywords(keywords string) string {
	return strings.Join(strings.Fields(keywords), ",")
}
