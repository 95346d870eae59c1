package disposition

import (
	"fmt"
	"unicode/utf8"
)

const (
	maxTitleBudget = 240
	ellipsis       = "..."
	webBaseURL     = "https://www.reddit.com"
)

// BuildTitle formats a re-submission title as
// "#<rank> [+<score>|<comments>] <title> [<subreddit>]". The original title is
// cut to 240 minus the subreddit's length (in runes) and gets "..." when cut.
func BuildTitle(rank, score, comments int, title, subredditPrefixed string) string {
	limit := max(maxTitleBudget-utf8.RuneCountInString(subredditPrefixed), 0)
	if utf8.RuneCountInString(title) > limit {
		title = string([]rune(title)[:limit]) + ellipsis
	}
	return fmt.Sprintf("#%d [+%d|%d] %s [%s]", rank, score, comments, title, subredditPrefixed)
}

// PermalinkURL turns a relative permalink into the absolute URL that gets submitted.
func PermalinkURL(permalink string) string {
	return webBaseURL + permalink
}
