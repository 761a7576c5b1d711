// Package content produces marketing copy for a product.
package content

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	"text/template"

	"github.com/Simplici0/listingdesk/internal/library"
)

const (
	maxTitleRunes = 80
	maxMetaRunes  = 160
	maxFeatures   = 5
	maxTweetRunes = 280
	maxHashtags   = 5
)

// Content is the copy for a marketplace listing, a companion blog post and
// the social channels.
type Content struct {
	ListingTitle string   `json:"listingTitle"`
	ListingPrice string   `json:"listingPrice"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	WhyBuy       []string `json:"whyBuy"`

	BlogTitle       string   `json:"blogTitle"`
	BlogContent     string   `json:"blogContent"` // HTML
	SEOTags         []string `json:"seoTags"`
	MetaDescription string   `json:"metaDescription"`
	SEOScore        int      `json:"seoScore"` // 0-100

	FacebookPost     string   `json:"facebookPost"`
	InstagramCaption string   `json:"instagramCaption"`
	TwitterThread    []string `json:"twitterThread"`
	TikTokScript     string   `json:"tiktokScript"`
}

// Generator is the content-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, p library.Product) (Content, error)
}

var descriptionTmpl = template.Must(template.New("description").Parse(
	`{{.Title}}{{if .Description}}. {{.Description}}{{end}}{{if .Category}} Category: {{.Category}}.{{end}}`))

var blogTmpl = htmltemplate.Must(htmltemplate.New("blog").Parse(`<h2>{{.Title}}</h2>
<p>{{.Description}}</p>
{{if .Features}}<h3>Key features</h3>
<ul>
{{range .Features}}<li>{{.}}</li>
{{end}}</ul>
{{end}}<h3>Why buy</h3>
<ul>
{{range .WhyBuy}}<li>{{.}}</li>
{{end}}</ul>
<p><strong>Price: {{.Price}}</strong></p>
`))

var socialTmpl = template.Must(template.New("facebook").Parse(
	`{{.Title}} is here for just {{.Price}}!
{{range .Features}}
- {{.}}{{end}}

{{.Description}}
{{.Hashtags}}`))

func init() {
	template.Must(socialTmpl.New("instagram").Parse(
		`New find: {{.Title}}
{{.Description}}
Only {{.Price}}. Link in bio.
.
{{.Hashtags}}`))
	template.Must(socialTmpl.New("tiktok").Parse(
		`[HOOK] Stop scrolling! You need to see this {{.Title}}.
[SHOW] {{if .Features}}{{index .Features 0}}{{else}}{{.Description}}{{end}}
[PROOF] {{.Description}}
[CTA] Grab it for {{.Price}} before it sells out. Link in bio!`))
}

// copyData feeds the blog and social templates.
type copyData struct {
	Title       string
	Description string
	Price       string
	Features    []string
	WhyBuy      []string
	Hashtags    string
}

var whyBuy = []string{
	"Fast dispatch from a tracked supplier",
	"30-day hassle-free returns",
	"Responsive seller support",
}

// Template fills copy from product fields with text/template, and the blog
// body with html/template. It is the offline stand-in for a generative service.
type Template struct{}

// Generate implements Generator.
func (Template) Generate(ctx context.Context, p library.Product) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	var desc bytes.Buffer
	if err := descriptionTmpl.Execute(&desc, p); err != nil {
		return Content{}, fmt.Errorf("render description: %w", err)
	}

	c := Content{
		ListingTitle:    truncate(p.Title, maxTitleRunes),
		ListingPrice:    p.ListingPrice(),
		Description:     desc.String(),
		Features:        specFeatures(p.Specs),
		WhyBuy:          append([]string{}, whyBuy...),
		BlogTitle:       "Why everyone is talking about the " + p.Title,
		SEOTags:         seoTags(p),
		MetaDescription: truncate(desc.String(), maxMetaRunes),
	}

	data := copyData{
		Title:       p.Title,
		Description: desc.String(),
		Price:       c.ListingPrice,
		Features:    c.Features,
		WhyBuy:      c.WhyBuy,
		Hashtags:    hashtags(c.SEOTags),
	}

	var blog bytes.Buffer
	if err := blogTmpl.Execute(&blog, data); err != nil {
		return Content{}, fmt.Errorf("render blog: %w", err)
	}
	c.BlogContent = blog.String()

	for name, dst := range map[string]*string{
		"facebook":  &c.FacebookPost,
		"instagram": &c.InstagramCaption,
		"tiktok":    &c.TikTokScript,
	} {
		var buf bytes.Buffer
		if err := socialTmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return Content{}, fmt.Errorf("render %s: %w", name, err)
		}
		*dst = buf.String()
	}

	c.TwitterThread = twitterThread(data)
	c.SEOScore = seoScore(p, c)
	return c, nil
}

// twitterThread splits the pitch into tweets of at most maxTweetRunes.
func twitterThread(d copyData) []string {
	tweets := []string{
		fmt.Sprintf("1/ Found a deal: %s for %s", d.Title, d.Price),
		"2/ " + d.Description,
	}
	if len(d.Features) > 0 {
		tweets = append(tweets, "3/ Highlights: "+strings.Join(d.Features, ", "))
	}
	tweets = append(tweets, fmt.Sprintf("%d/ %s %s", len(tweets)+1, d.WhyBuy[0], d.Hashtags))

	for i, tw := range tweets {
		tweets[i] = truncate(strings.TrimSpace(tw), maxTweetRunes)
	}
	return tweets
}

// seoScore rates the listing copy out of 100.
func seoScore(p library.Product, c Content) int {
	score := 50
	if n := len([]rune(c.ListingTitle)); n >= 30 && n <= maxTitleRunes {
		score += 10
	}
	if len([]rune(c.MetaDescription)) >= 50 {
		score += 10
	}
	if len(c.Features) >= 3 {
		score += 10
	}
	if len(c.SEOTags) >= 5 {
		score += 10
	}
	if strings.TrimSpace(p.Description) != "" {
		score += 10
	}
	return min(score, 100)
}

func hashtags(tags []string) string {
	out := make([]string, 0, maxHashtags)
	for _, tag := range tags {
		if len(out) == maxHashtags {
			break
		}
		out = append(out, "#"+tag)
	}
	return strings.Join(out, " ")
}

// specFeatures lists up to maxFeatures "Key: Value" lines in key order.
func specFeatures(specs map[string]string) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	features := make([]string, 0, maxFeatures)
	for _, k := range keys {
		if len(features) == maxFeatures {
			break
		}
		features = append(features, k+": "+specs[k])
	}
	return features
}

func seoTags(p library.Product) []string {
	seen := map[string]bool{}
	tags := make([]string, 0)
	for _, word := range strings.Fields(strings.ToLower(p.Title + " " + p.Category)) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if len([]rune(word)) < 3 || seen[word] {
			continue
		}
		seen[word] = true
		tags = append(tags, word)
	}
	return tags
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
