package library

import (
	"sort"
	"strings"
)

// TagCount pairs a tag with how many works carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MonthCount pairs a yyyy-MM bucket with how many works are dated in it.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Stats is the dashboard aggregate over the whole library.
type Stats struct {
	TotalWorks  int          `json:"total_works"`
	Poems       int          `json:"poems"`
	Books       int          `json:"books"`
	Favorites   int          `json:"favorites"`
	Drafts      int          `json:"drafts"`
	TotalWords  int          `json:"total_words"`
	TotalTokens int          `json:"total_tokens"` // -1 when no tokenizer is loaded
	TagCounts   []TagCount   `json:"tag_counts"`   // most used first
	Timeline    []MonthCount `json:"timeline"`     // chronological
}

// Stats computes the dashboard aggregate. Token totals require a prior
// InitTokenizer call; without one TotalTokens is reported as -1.
func (l *Library) Stats() (*Stats, error) {
	works, err := l.store.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalWorks: len(works)}
	tagCounts := make(map[string]int)
	monthCounts := make(map[string]int)
	tokensAvailable := TokenizerInitialized()

	for _, w := range works {
		if w.IsBook() {
			stats.Books++
		} else {
			stats.Poems++
		}
		if w.Favorite {
			stats.Favorites++
		}
		if w.Draft {
			stats.Drafts++
		}
		for _, tag := range w.Tags {
			tagCounts[tag]++
		}
		if month := monthBucket(w.Date); month != "" {
			monthCounts[month]++
		}

		text := PlainText(w.Content)
		stats.TotalWords += len(strings.Fields(text))
		if tokensAvailable {
			if n := CountTokens(text); n >= 0 {
				stats.TotalTokens += n
			}
		}
	}
	if !tokensAvailable {
		stats.TotalTokens = -1
	}

	for tag, count := range tagCounts {
		stats.TagCounts = append(stats.TagCounts, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(stats.TagCounts, func(i, j int) bool {
		if stats.TagCounts[i].Count != stats.TagCounts[j].Count {
			return stats.TagCounts[i].Count > stats.TagCounts[j].Count
		}
		return stats.TagCounts[i].Tag < stats.TagCounts[j].Tag
	})

	for month, count := range monthCounts {
		stats.Timeline = append(stats.Timeline, MonthCount{Month: month, Count: count})
	}
	sort.Slice(stats.Timeline, func(i, j int) bool {
		return stats.Timeline[i].Month < stats.Timeline[j].Month
	})

	return stats, nil
}

// monthBucket reduces an ISO date to its yyyy-MM prefix. Dates too short
// or malformed are excluded from the timeline rather than failing stats.
func monthBucket(date string) string {
	if len(date) < 7 {
		return ""
	}
	month := date[:7]
	if date[4] != '-' {
		return ""
	}
	return month
}
