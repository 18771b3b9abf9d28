package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const leetCodeSolvedQuery = `query userProblemsSolved($username: String!) {
  matchedUser(username: $username) {
    submitStatsGlobal {
      acSubmissionNum {
        difficulty
        count
      }
    }
  }
}`

type leetCodeGraphQLResponse struct {
	Data struct {
		MatchedUser *struct {
			SubmitStatsGlobal struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
		} `json:"matchedUser"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// leetCodeGraphQL 官方 GraphQL 接口，取 difficulty=All 的 AC 数
func (c *Client) leetCodeGraphQL(endpoint string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		payload, _ := json.Marshal(map[string]interface{}{
			"query":     leetCodeSolvedQuery,
			"variables": map[string]string{"username": handle},
		})
		req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return Stat{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", "https://leetcode.com/"+url.PathEscape(handle)+"/")

		body, err := c.do(req)
		if err != nil {
			return Stat{}, err
		}

		var resp leetCodeGraphQLResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Stat{}, malformed("leetcode graphql: %v", err)
		}
		if len(resp.Errors) > 0 {
			return Stat{}, malformed("leetcode graphql: %s", resp.Errors[0].Message)
		}
		if resp.Data.MatchedUser == nil {
			return Stat{}, malformed("leetcode graphql: user %q not found", handle)
		}

		nums := resp.Data.MatchedUser.SubmitStatsGlobal.AcSubmissionNum
		if len(nums) == 0 {
			return Stat{}, malformed("leetcode graphql: empty acSubmissionNum")
		}
		total, sum := -1, 0
		for _, n := range nums {
			if strings.EqualFold(n.Difficulty, "All") {
				total = n.Count
			} else {
				sum += n.Count
			}
		}
		if total < 0 {
			total = sum
		}
		return Stat{Solved: total}, nil
	}
}

// leetCodeAlfa alfa-leetcode-api: GET {base}/{handle}/solved
func (c *Client) leetCodeAlfa(base string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		var resp struct {
			SolvedProblem *int   `json:"solvedProblem"`
			Errors        string `json:"errors"`
		}
		endpoint := strings.TrimRight(base, "/") + "/" + url.PathEscape(handle) + "/solved"
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return Stat{}, err
		}
		if resp.Errors != "" {
			return Stat{}, malformed("alfa-leetcode-api: %s", resp.Errors)
		}
		if resp.SolvedProblem == nil {
			return Stat{}, malformed("alfa-leetcode-api: missing solvedProblem")
		}
		return Stat{Solved: *resp.SolvedProblem}, nil
	}
}

// leetCodeStats leetcode-stats-api: GET {base}/{handle}
func (c *Client) leetCodeStats(base string) func(ctx context.Context, handle string) (Stat, error) {
	return func(ctx context.Context, handle string) (Stat, error) {
		var resp struct {
			Status      string `json:"status"`
			Message     string `json:"message"`
			TotalSolved *int   `json:"totalSolved"`
		}
		endpoint := strings.TrimRight(base, "/") + "/" + url.PathEscape(handle)
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return Stat{}, err
		}
		if resp.Status != "success" || resp.TotalSolved == nil {
			return Stat{}, malformed("leetcode-stats-api: status=%q message=%q", resp.Status, resp.Message)
		}
		return Stat{Solved: *resp.TotalSolved}, nil
	}
}
