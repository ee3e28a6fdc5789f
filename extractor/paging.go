package extractor

import (
	"fmt"
	"net/url"
	"strconv"
)

// pagedURL rewrites the page-number query parameter on current. Sites using
// numbered pagination expose the page as a plain query param.
func pagedURL(current, param string, page int) (string, error) {
	if param == "" {
		param = "page"
	}

	u, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parsing current url %q: %w", current, err)
	}

	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
