package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/canon"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/publisher"
)

const defaultIdeationLimit = 5

// ideaMinerHandler turns captured content into concrete content ideas.
// It pulls "content_capture" artifacts from canon, feeds each through
// the model alongside the brand canon documents, and stores the ideas
// back as linked artifacts.
type ideaMinerHandler struct {
	deps Deps
}

type contentIdea struct {
	Title          string `json:"title"`
	Angle          string `json:"angle"`
	TargetAudience string `json:"target_audience"`
	ContentHook    string `json:"content_hook"`
	Platform       string `json:"platform"`
	Format         string `json:"format"`
	WhyItWorks     string `json:"why_it_works"`
}

type ideationEntry struct {
	ContentName string
	ContentURL  string
	Ideas       []contentIdea
	Status      string
	Err         string
}

func (h *ideaMinerHandler) Execute(ctx context.Context, req brain.HandlerRequest) *brain.HandlerResult {
	start := time.Now()

	if h.deps.Canon == nil {
		return failure("CANON_NOT_CONFIGURED", "no canon store configured", time.Since(start).Milliseconds())
	}
	if h.deps.LLM == nil {
		return failure("LLM_NOT_CONFIGURED", "no language model configured", time.Since(start).Milliseconds())
	}

	limit := defaultIdeationLimit
	if n := intFromAny(req.Input["limit"]); n > 0 {
		limit = n
	}
	query, _ := req.Input["query"].(string)
	if query == "" {
		query = "captured content"
	}
	dryRun, _ := req.Input["dry_run"].(bool)

	logger.Info("starting content idea mining", "request_id", req.RequestID, "limit", limit)

	entries := h.deps.Canon.Search(ctx, query, canon.SearchOptions{
		Limit: limit,
		Type:  "content_capture",
		Retrieval: canon.Retrieval{
			RequestID:   req.RequestID,
			ExecutionID: req.ExecutionID,
			IntentID:    intentID(req),
		},
	})

	if len(entries) == 0 {
		logger.Info("no captured content ready for ideation")
		return &brain.HandlerResult{
			Status: "success",
			Result: map[string]any{
				"entries_processed": 0,
				"ideas_generated":   0,
				"message":           "No entries ready for ideation",
			},
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	brandCanon := h.loadBrandCanon(ctx, req)

	var log []ideationEntry
	totalIdeas := 0

	for _, entry := range entries {
		source, err := h.deps.Canon.GetArtifact(ctx, entry.ArtifactID, canon.Retrieval{
			RequestID:   req.RequestID,
			ExecutionID: req.ExecutionID,
			IntentID:    intentID(req),
		})
		if err != nil || source == nil {
			log = append(log, ideationEntry{ContentName: entry.Title, Status: "error", Err: "source artifact unavailable"})
			continue
		}

		ideas, err := h.generateIdeas(ctx, source, brandCanon)
		if err != nil {
			logger.Error("idea generation failed", "artifact_id", source.ArtifactID, "error", err)
			log = append(log, ideationEntry{ContentName: source.Title, ContentURL: source.SourceURL, Status: "error", Err: err.Error()})
			continue
		}

		if !dryRun {
			for _, idea := range ideas {
				h.storeIdea(ctx, idea, source)
			}
			totalIdeas += len(ideas)
		}

		log = append(log, ideationEntry{
			ContentName: source.Title,
			ContentURL:  source.SourceURL,
			Ideas:       ideas,
			Status:      "success",
		})

		logger.Info("ideas generated", "source", source.Title, "count", len(ideas))
	}

	artifactURI := h.publishLog(ctx, req, log, totalIdeas)

	logger.Info("content ideation complete", "entries", len(entries), "ideas", totalIdeas)

	return &brain.HandlerResult{
		Status: "success",
		Result: map[string]any{
			"entries_processed": len(entries),
			"ideas_generated":   totalIdeas,
			"artifact_uri":      artifactURI,
		},
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

// loadBrandCanon fetches the brand reference documents the prompt leans
// on. Missing documents degrade the prompt, not the run.
func (h *ideaMinerHandler) loadBrandCanon(ctx context.Context, req brain.HandlerRequest) string {
	var sb strings.Builder
	for _, id := range []string{"brand_foundation", "cos_content_playbook"} {
		doc, err := h.deps.Canon.GetArtifact(ctx, id, canon.Retrieval{
			RequestID: req.RequestID,
			IntentID:  intentID(req),
		})
		if err != nil || doc == nil {
			logger.Warn("brand canon document missing", "artifact_id", id)
			continue
		}
		fmt.Fprintf(&sb, "### %s\n\n%s\n\n---\n\n", strings.ToUpper(doc.Title), doc.Content)
	}
	return sb.String()
}

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

func (h *ideaMinerHandler) generateIdeas(ctx context.Context, source *canon.Artifact, brandCanon string) ([]contentIdea, error) {
	prompt := ideationPrompt(source, brandCanon)

	response, err := h.deps.LLM.Complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	match := jsonArrayPattern.FindString(response)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in model response")
	}

	var ideas []contentIdea
	if err := json.Unmarshal([]byte(match), &ideas); err != nil {
		return nil, fmt.Errorf("parse ideas: %w", err)
	}

	return ideas, nil
}

func ideationPrompt(source *canon.Artifact, brandCanon string) string {
	var sb strings.Builder

	sb.WriteString(`You are the Content Idea Miner for WhyHi's Content Operating System (COS).

Your job: Analyze captured content and generate 2-5 content ideas that align with WhyHi's brand and resonate with our target audiences.

## CAPTURED CONTENT

`)
	fmt.Fprintf(&sb, "**Source:** %s\n", source.Title)
	fmt.Fprintf(&sb, "**URL:** %s\n", source.SourceURL)
	fmt.Fprintf(&sb, "**Notes:** %s\n", source.Summary)
	fmt.Fprintf(&sb, "**Tags:** %s\n\n", strings.Join(source.Tags, ", "))

	if brandCanon != "" {
		sb.WriteString("---\n\n## YOUR CANON REFERENCES\n\n")
		sb.WriteString(brandCanon)
	}

	sb.WriteString(`## INSTRUCTIONS

Generate 2-5 content ideas. For each idea provide: title, angle, target_audience, content_hook, platform, format, why_it_works.

Return the ideas as a JSON array of objects with exactly those keys. Output only the JSON array.`)

	return sb.String()
}

func (h *ideaMinerHandler) storeIdea(ctx context.Context, idea contentIdea, source *canon.Artifact) {
	ideaID := "idea_" + time.Now().Format("20060102") + "_" + slugID(idea.Title)

	stored := h.deps.Canon.StoreArtifact(ctx, canon.ArtifactInput{
		ArtifactID: ideaID,
		Type:       "content_idea",
		Title:      idea.Title,
		Content: fmt.Sprintf("**Angle:** %s\n**Target Audience:** %s\n**Platform:** %s\n**Format:** %s\n\n**Hook:** %s\n\n**Why It Works:** %s\n",
			idea.Angle, idea.TargetAudience, idea.Platform, idea.Format, idea.ContentHook, idea.WhyItWorks),
		Summary:  idea.ContentHook,
		Category: "ideation",
		Tags:     []string{"content_idea", strings.ToLower(idea.Platform)},
		Source:   source.ArtifactID,
	})
	if stored {
		h.deps.Canon.LinkArtifacts(ctx, ideaID, source.ArtifactID, "derived_from")
	}
}

func (h *ideaMinerHandler) publishLog(ctx context.Context, req brain.HandlerRequest, log []ideationEntry, totalIdeas int) string {
	if h.deps.Publisher == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Date:** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Entries Processed:** %d\n", len(log))
	fmt.Fprintf(&sb, "**Total Ideas Generated:** %d\n\n---\n\n", totalIdeas)

	for _, entry := range log {
		fmt.Fprintf(&sb, "## %s\n\n", entry.ContentName)
		if entry.ContentURL != "" {
			fmt.Fprintf(&sb, "**URL:** %s\n", entry.ContentURL)
		}
		fmt.Fprintf(&sb, "**Status:** %s\n\n", entry.Status)

		for i, idea := range entry.Ideas {
			fmt.Fprintf(&sb, "### Idea %d: %s\n\n", i+1, idea.Title)
			fmt.Fprintf(&sb, "- **Angle:** %s\n", idea.Angle)
			fmt.Fprintf(&sb, "- **Target Audience:** %s\n", idea.TargetAudience)
			fmt.Fprintf(&sb, "- **Platform:** %s\n", idea.Platform)
			fmt.Fprintf(&sb, "- **Format:** %s\n", idea.Format)
			fmt.Fprintf(&sb, "- **Content Hook:** %s\n", idea.ContentHook)
			fmt.Fprintf(&sb, "- **Why It Works:** %s\n\n", idea.WhyItWorks)
		}

		if entry.Err != "" {
			fmt.Fprintf(&sb, "**Error:** %s\n", entry.Err)
		}
		sb.WriteString("\n---\n\n")
	}

	_, path, err := h.deps.Publisher.Publish(ctx, publisher.Doc{
		Title:        "Content Ideation Log - " + time.Now().Format("2006-01-02"),
		Content:      sb.String(),
		Summary:      fmt.Sprintf("Generated %d ideas from %d captured content pieces", totalIdeas, len(log)),
		Type:         "ideation_log",
		Category:     "ideation",
		Tags:         []string{"content_ideation", "cos", "ideas"},
		SourceIntent: intentID(req),
	})
	if err != nil {
		logger.Warn("ideation log publish failed", "error", err)
		return ""
	}
	return path
}

var slugIDPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugID(s string) string {
	s = slugIDPattern.ReplaceAllString(strings.ToLower(s), "_")
	s = strings.Trim(s, "_")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
