package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vijay-prabhu/talentmatch/internal/match"
)

func (s *Server) registerHandlers() {
	s.handlers["match_candidates"] = s.handleMatchCandidates
	s.handlers["get_candidate"] = s.handleGetCandidate
	s.handlers["list_selections"] = s.handleListSelections
	s.handlers["run_selection"] = s.handleRunSelection
	s.handlers["get_stats"] = s.handleGetStats
}

type matchCandidatesParams struct {
	match.Query
	Limit int `json:"limit"`
}

type matchResult struct {
	Total         int            `json:"total"`
	Returned      int            `json:"returned"`
	SelectionKeys string         `json:"selection_keys"`
	Results       []match.Result `json:"results"`
}

func (s *Server) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.config.Match.DefaultLimit
}

func (s *Server) runQuery(ctx context.Context, q match.Query, limit int) (*matchResult, error) {
	results, err := s.matcher.Match(ctx, q)
	if err != nil {
		return nil, err
	}

	keys, err := q.Encode()
	if err != nil {
		return nil, err
	}

	total := len(results)
	if n := s.limit(limit); n > 0 && len(results) > n {
		results = results[:n]
	}

	return &matchResult{
		Total:         total,
		Returned:      len(results),
		SelectionKeys: keys,
		Results:       results,
	}, nil
}

func (s *Server) handleMatchCandidates(ctx context.Context, params json.RawMessage) (any, error) {
	var p matchCandidatesParams
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	return s.runQuery(ctx, p.Query, p.Limit)
}

type getCandidateParams struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleGetCandidate(ctx context.Context, params json.RawMessage) (any, error) {
	var p getCandidateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if p.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	c, err := s.store.GetCandidate(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("candidate not found: %s", p.UserID)
	}
	return c, nil
}

type selectionSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Query match.Query `json:"query"`
}

func (s *Server) handleListSelections(ctx context.Context, _ json.RawMessage) (any, error) {
	selections, err := s.store.ListSelections(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	out := make([]selectionSummary, 0, len(selections))
	for _, sel := range selections {
		q, err := match.DecodeQuery(sel.Query)
		if err != nil {
			s.logger.Warn("skipping unreadable selection", "selection", sel.Name, "err", err)
			continue
		}
		out = append(out, selectionSummary{ID: sel.ID, Name: sel.Name, Query: q})
	}
	return out, nil
}

type runSelectionParams struct {
	Selection string `json:"selection"`
	Limit     int    `json:"limit"`
}

func (s *Server) handleRunSelection(ctx context.Context, params json.RawMessage) (any, error) {
	var p runSelectionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if p.Selection == "" {
		return nil, fmt.Errorf("selection is required")
	}

	sel, err := s.store.GetSelection(ctx, p.Selection)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if sel == nil {
		return nil, fmt.Errorf("selection not found: %s", p.Selection)
	}

	q, err := match.DecodeQuery(sel.Query)
	if err != nil {
		return nil, err
	}
	return s.runQuery(ctx, q, p.Limit)
}

func (s *Server) handleGetStats(ctx context.Context, _ json.RawMessage) (any, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return stats, nil
}

// Resource handlers

func (s *Server) handleReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case URISummary:
		return s.getResourceSummary(ctx)
	case URISelections:
		return s.getResourceSelections(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func (s *Server) getResourceSummary(ctx context.Context) (string, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf(`Candidate Pool Summary
======================
Total Candidates:  %d
  - Members:       %d
  - Available:     %d
  - Unavailable:   %d
  - Unknown:       %d

Saved Selections:  %d
Store:             %s
`, stats.TotalCandidates, stats.Members, stats.Available, stats.Unavailable,
		stats.UnknownAvail, stats.Selections, s.store.Driver())

	return summary, nil
}

func (s *Server) getResourceSelections(ctx context.Context) (string, error) {
	selections, err := s.store.ListSelections(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Saved Selections\n================\n\n")

	if len(selections) == 0 {
		b.WriteString("No saved selections. Run 'talentmatch selection save' to create one.\n")
		return b.String(), nil
	}

	for _, sel := range selections {
		fmt.Fprintf(&b, "- %s (%s)\n  %s\n", sel.Name, sel.CreatedAt.Format("2006-01-02"), sel.Query)
	}
	return b.String(), nil
}
