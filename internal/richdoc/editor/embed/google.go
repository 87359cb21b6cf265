package embed

import (
	"regexp"
	"strings"
)

// GoogleSlides встраивает презентации Google: ссылка редактирования заменяется на просмотр,
// ссылка публикации - на встраивание.
var GoogleSlides = Provider{
	Name:     "google_slides",
	Patterns: []*regexp.Regexp{regexp.MustCompile(`^https?://docs.google.com/presentation/d/(.*)$`)},
	Render: func(m Match) Frame {
		src := strings.Replace(m.Href, "/edit", "/preview", 1)
		src = strings.Replace(src, "/pub", "/embed", 1)
		return Frame{
			Src:          src,
			CanonicalURL: m.Href,
			Title:        "Google Slides",
			Icon:         "/images/google-slides.png",
			Border:       true,
		}
	},
}
