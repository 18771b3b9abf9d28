package platform

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	codeChefSolvedRe   = regexp.MustCompile(`Total Problems Solved:\s*([\d,]+)`)
	codeChefContestsRe = regexp.MustCompile(`Contests\s*\((\d+)\)`)
)

// codeChefProfile 抓取 CodeChef 个人主页
func (c *Client) codeChefProfile(base string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		doc, err := c.getHTML(ctx, strings.TrimRight(base, "/")+"/"+url.PathEscape(handle))
		if err != nil {
			return Stat{}, err
		}

		section := doc.Find("section.problems-solved")
		if section.Length() == 0 {
			// 不存在的用户会被重定向到首页
			section = doc.Selection
		}

		var stat Stat
		m := codeChefSolvedRe.FindStringSubmatch(section.Text())
		if m == nil {
			return Stat{}, malformed("codechef profile: solved count not found for %q", handle)
		}
		stat.Solved, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))

		if n, ok := codeChefContestCount(doc); ok {
			stat.ContestCount = intPtr(n)
		}
		return stat, nil
	}
}

func codeChefContestCount(doc *goquery.Document) (int, bool) {
	if b := doc.Find(".contest-participated-count b").First(); b.Length() > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(b.Text())); err == nil {
			return n, true
		}
	}
	if m := codeChefContestsRe.FindStringSubmatch(doc.Find("section.problems-solved").Text()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// codeChefAPI 第三方 JSON 镜像
func (c *Client) codeChefAPI(base string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		var resp struct {
			Success              bool `json:"success"`
			TotalProblemsSolved  *int `json:"totalProblemsSolved"`
			ContestsParticipated *int `json:"contestsParticipated"`
		}
		if err := c.getJSON(ctx, strings.TrimRight(base, "/")+"/"+url.PathEscape(handle), &resp); err != nil {
			return Stat{}, err
		}
		if !resp.Success || resp.TotalProblemsSolved == nil {
			return Stat{}, malformed("codechef-api: no solved count for %q", handle)
		}
		return Stat{Solved: *resp.TotalProblemsSolved, ContestCount: resp.ContestsParticipated}, nil
	}
}
