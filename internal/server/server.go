// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it resolves the project directory, creates
// concrete implementations (config store, feature store, scorer, engine,
// materializer), and injects them into the tools/prompts/resources that
// depend on them. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/dedupe"
	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/prompts"
	"github.com/specforge/specforge/internal/render"
	"github.com/specforge/specforge/internal/resources"
	"github.com/specforge/specforge/internal/similarity"
	"github.com/specforge/specforge/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts, and
// resources registered. This is the single place where all dependencies
// are resolved.
//
// The returned cleanup function closes the feature store's database
// connection and must be called on shutdown (typically via defer). It is
// always non-nil and safe to call.
func New() (*server.MCPServer, func(), error) {
	// --- Resolve the project and load configuration ---

	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, noop, fmt.Errorf("finding project root: %w", err)
	}
	cfg, err := config.NewFileStore().Load(projectRoot)
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	// --- Create shared dependencies ---

	store, err := feature.Open(config.DataPath(projectRoot))
	if err != nil {
		return nil, noop, fmt.Errorf("opening feature store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: feature store close: %v", err)
		}
	}

	files, err := render.NewMaterializer(config.FeaturesPath(projectRoot))
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating materializer: %w", err)
	}

	engine := dedupe.New(store, similarity.New(), files, cfg.Deduplication)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"specforge",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	saveTool := tools.NewSaveFeatureTool(engine)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	getTool := tools.NewGetFeatureTool(store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	statusTool := tools.NewFeatureStatusTool(store)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	updateTool := tools.NewUpdateTaskStatusTool(store)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	listTool := tools.NewListFeaturesTool(store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	findTool := tools.NewFindSimilarTool(engine, cfg.Deduplication.SimilarityThreshold)
	s.AddTool(findTool.Definition(), findTool.Handle)

	// --- Register prompts ---

	savePrompt := prompts.NewSavePrompt()
	s.AddPrompt(savePrompt.Definition(), savePrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails before the store
// is open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use SpecForge effectively.
func serverInstructions() string {
	return `You have access to SpecForge, an MCP server that turns free-text
specifications into stored features with actionable task sets.

## WHEN TO USE SpecForge

Use it when the user:
- Hands you a specification, PRD, or feature description and wants it tracked
- Asks to plan a feature as concrete tasks
- Wants to know whether a feature like this already exists
- Asks about progress on previously saved features

## CRITICAL: How Tools Work
SpecForge tools are STORAGE tools, not AI tools. YOU analyze the spec:
grade it (A+ to F), score it (0-100), and extract real tasks — each with a
title, summary, and at least one acceptance criterion. The tools persist
your analysis and render the feature files.

NEVER call forge_save_feature with placeholder tasks like "TBD".
ALWAYS extract substantive tasks from the actual specification text.

## DUPLICATE DETECTION
Every save is checked against stored features first:
- An exact name match or a similar spec produces a duplicate report
- By default NOTHING is saved — you get the report and must decide
- Re-invoke forge_save_feature with strategy='merge' (combine task lists,
  duplicates dropped), 'replace' (supersede the stored version), or
  'skip' (keep what is stored)
- Show the user the report before choosing, unless they already told you
  how to resolve duplicates

## TYPICAL FLOW
1. forge_find_similar with the spec text — check before analyzing
2. Analyze the spec yourself: grade, score, tasks
3. forge_save_feature — resolve any duplicate report
4. forge_update_task_status as work progresses
5. forge_feature_status / forge_list_features to report progress`
}
