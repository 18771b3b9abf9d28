package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type codeforcesStatusResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  []struct {
		Verdict string `json:"verdict"`
		Problem struct {
			ContestID int    `json:"contestId"`
			Index     string `json:"index"`
			Name      string `json:"name"`
		} `json:"problem"`
	} `json:"result"`
}

type codeforcesRatingResponse struct {
	Status  string        `json:"status"`
	Comment string        `json:"comment"`
	Result  []interface{} `json:"result"`
}

// codeforcesAPI 官方 API：user.status 统计去重后的 AC 题目，user.rating 的条数即参赛场次
func (c *Client) codeforcesAPI(base string) func(ctx context.Context, handle string) (Stat, error) {
	base = strings.TrimRight(base, "/")
	return func(ctx context.Context, handle string) (Stat, error) {
		var status codeforcesStatusResponse
		if err := c.getJSON(ctx, base+"/user.status?handle="+url.QueryEscape(handle), &status); err != nil {
			return Stat{}, err
		}
		if status.Status != "OK" {
			return Stat{}, malformed("codeforces user.status: %s", status.Comment)
		}

		solved := make(map[string]struct{})
		for _, sub := range status.Result {
			if sub.Verdict != "OK" {
				continue
			}
			key := fmt.Sprintf("%d-%s", sub.Problem.ContestID, sub.Problem.Index)
			if sub.Problem.ContestID == 0 {
				key = "name-" + sub.Problem.Name
			}
			solved[key] = struct{}{}
		}
		stat := Stat{Solved: len(solved)}

		// 参赛场次取不到不影响做题数
		var rating codeforcesRatingResponse
		if err := c.getJSON(ctx, base+"/user.rating?handle="+url.QueryEscape(handle), &rating); err == nil && rating.Status == "OK" {
			stat.ContestCount = intPtr(len(rating.Result))
		}
		return stat, nil
	}
}

var leadingNumber = regexp.MustCompile(`^\s*([\d,]+)`)

// codeforcesProfile 个人主页里的 "N problems" 计数
func (c *Client) codeforcesProfile(base string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		doc, err := c.getHTML(ctx, strings.TrimRight(base, "/")+"/"+url.PathEscape(handle))
		if err != nil {
			return Stat{}, err
		}

		solved := -1
		doc.Find("._UserActivityFrame_counterValue").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if !strings.Contains(text, "problem") {
				return true
			}
			if m := leadingNumber.FindStringSubmatch(text); m != nil {
				solved, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
				return false
			}
			return true
		})
		if solved < 0 {
			return Stat{}, malformed("codeforces profile: solved counter not found for %q", handle)
		}
		return Stat{Solved: solved}, nil
	}
}

func (c *Client) getHTML(ctx context.Context, endpoint string) (*goquery.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, malformed("parse html: %v", err)
	}
	return doc, nil
}
