// Package mcp provides a Model Context Protocol server for skein.
//
// It exposes the story service (topic rankings, story state, picks,
// popular subjects) as MCP tools, plus store statistics as a resource,
// over stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pellmark/skein/internal/store"
	"github.com/pellmark/skein/internal/story"
	"github.com/pellmark/skein/internal/topics"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   store.Store
	Version string
}

// dbMu serializes tool calls that touch the database. The mcp-go
// library dispatches handlers concurrently via goroutines; SQLite
// supports only one writer at a time, and a submit must be visible to
// the story read that follows it.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all skein tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Skein",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerTopicsTool(s, cfg.Store)
	registerStoryTool(s, cfg.Store)
	registerSubmitTool(s, cfg.Store)
	registerPopularTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)

	return s
}

// --- Tools ---

func registerTopicsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("skein_topics",
		mcp.WithDescription("List ranked story topics. Order 'time' ranks by most recent story activity, 'posts' by how many lines each story has accumulated."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("order",
			mcp.Description("Ranking order: time or posts (default: time)"),
			mcp.Enum("time", "posts"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (default: 1)"),
		),
		mcp.WithNumber("per_page",
			mcp.Description(fmt.Sprintf("Topics per page (default: %d, max: %d)", topics.DefaultPerPage, topics.MaxPerPage)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		order := ""
		if o, err := req.RequireString("order"); err == nil {
			order = o
		}

		page := 1
		if p, err := req.RequireFloat("page"); err == nil && p > 0 {
			page = int(p)
		}
		perPage := topics.DefaultPerPage
		if pp, err := req.RequireFloat("per_page"); err == nil && pp > 0 {
			perPage = int(pp)
		}

		result, err := topics.List(ctx, st, order, page, perPage)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("topics error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStoryTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("skein_story",
		mcp.WithDescription("Read the full story state for a subject: the lines picked so far in order, and the pool of sentences still available."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("subject_id",
			mcp.Required(),
			mcp.Description("Subject ID, as listed by skein_topics"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		subjectID, err := req.RequireFloat("subject_id")
		if err != nil {
			return mcp.NewToolResultError("subject_id is required"), nil
		}

		view, err := story.Load(ctx, st, int64(subjectID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("unknown subject %d", int64(subjectID))), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("story error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(view, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSubmitTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("skein_submit",
		mcp.WithDescription("Append one available sentence to a subject's story. The sentence must be linked to the subject; picks are permanent."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("subject_id",
			mcp.Required(),
			mcp.Description("Subject whose story to extend"),
		),
		mcp.WithNumber("sentence_id",
			mcp.Required(),
			mcp.Description("Sentence to append, from the story's available pool"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		subjectID, err := req.RequireFloat("subject_id")
		if err != nil {
			return mcp.NewToolResultError("subject_id is required"), nil
		}
		sentenceID, err := req.RequireFloat("sentence_id")
		if err != nil {
			return mcp.NewToolResultError("sentence_id is required"), nil
		}

		if _, err := st.AppendToStory(ctx, int64(subjectID), int64(sentenceID)); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return mcp.NewToolResultError(fmt.Sprintf("unknown subject %d", int64(subjectID))), nil
			case errors.Is(err, store.ErrConstraint):
				return mcp.NewToolResultError("sentence is not linked to this subject"), nil
			default:
				return mcp.NewToolResultError(fmt.Sprintf("submit error: %v", err)), nil
			}
		}

		view, err := story.Load(ctx, st, int64(subjectID))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("story reload error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(view, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerPopularTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("skein_popular",
		mcp.WithDescription("List the subjects with the most linked sentences across the whole corpus."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of subjects to return (default: 3, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 0
		if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
			limit = int(l)
			if limit > 50 {
				limit = 50
			}
		}

		popular, err := st.PopularSubjects(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("popular error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(popular, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerStatsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"skein://stats",
		"Store Statistics",
		mcp.WithResourceDescription("Corpus counts: subjects, sentences, links, story picks, and database size."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting stats: %w", err)
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
