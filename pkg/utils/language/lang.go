// Package language normalizes the BCP 47 tags found in platform metadata.
package language

import "golang.org/x/text/language"

type Tag language.Tag

var English = Tag(language.English)

func (t Tag) String() string {
	return language.Tag(t).String()
}

// Pick returns the first candidate that parses, or fallback.
func Pick(fallback Tag, candidates ...string) Tag {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if tag, err := language.Parse(c); err == nil {
			return Tag(tag)
		}
	}
	return fallback
}
