// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
	"github.com/AleutianAI/SpecForge/services/specgen/llm"
	"github.com/AleutianAI/SpecForge/services/specgen/observability"
	"github.com/AleutianAI/SpecForge/services/specgen/pipeline"
	"github.com/AleutianAI/SpecForge/services/specgen/prompt"
	"github.com/AleutianAI/SpecForge/services/specgen/routes"
)

// --- Global Command Variables ---
var (
	description  string
	language     string
	templateID   string
	complexity   string
	includeTests bool
	promptPath   string
	port         string

	rootCmd = &cobra.Command{
		Use:   "specforge",
		Short: "A cli to generate technical specifications from feature descriptions",
		Long: `SpecForge turns a natural-language feature description into a
				structured, machine-checkable technical specification using
				an LLM provider with validation and a deterministic fallback.`,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a specification and print it as JSON on stdout",
		RunE:  runGenerateCommand,
	}

	templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "List the known template families",
		RunE:  runTemplatesCommand,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the specification generation HTTP service",
		RunE:  runServeCommand,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&description, "description", "d", "", "feature description (required)")
	generateCmd.Flags().StringVar(&language, "language", "", "output language (it or en)")
	generateCmd.Flags().StringVar(&templateID, "template", "", "template family (crud, auth, ecommerce, ...)")
	generateCmd.Flags().StringVar(&complexity, "complexity", "", "expected complexity (simple, medium, complex)")
	generateCmd.Flags().BoolVar(&includeTests, "tests", false, "ask for an extended testing section")
	generateCmd.Flags().StringVar(&promptPath, "prompt", "", "override the system prompt file")
	_ = generateCmd.MarkFlagRequired("description")

	serveCmd.Flags().StringVar(&port, "port", "12270", "port to listen on")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(serveCmd)
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	client, err := llm.NewOpenAIClientFromEnv()
	if err != nil {
		return err
	}

	prompts := prompt.NewSystemLoader(promptPath)
	templates := prompt.LoadTemplateRegistry("")
	env := pipeline.NewEnvironment(client, prompts, templates, nil, pipeline.DefaultConfig())

	result, err := env.Generate(cmd.Context(), datatypes.GenerateRequest{
		Description:  description,
		Language:     language,
		Template:     templateID,
		Complexity:   complexity,
		IncludeTests: includeTests,
	})
	if err != nil {
		return err
	}

	if result.Meta.Fallback {
		fmt.Fprintln(os.Stderr, "warning: LLM pipeline failed, printing the fallback specification")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func runTemplatesCommand(cmd *cobra.Command, args []string) error {
	templates := prompt.LoadTemplateRegistry("")
	for _, f := range templates.List() {
		fmt.Printf("%-14s %s: %s\n", f.ID, f.Name, f.Description)
	}
	return nil
}

// runServeCommand starts the HTTP service in-process. Unlike the
// container entrypoint it skips the OTLP exporter, so it works on a
// developer machine without a collector.
func runServeCommand(cmd *cobra.Command, args []string) error {
	client, err := llm.NewOpenAIClientFromEnv()
	if err != nil {
		return err
	}

	prompts := prompt.NewSystemLoader(promptPath)
	if _, err := prompts.Load(); err != nil {
		return err
	}
	templates := prompt.LoadTemplateRegistry("")

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	env := pipeline.NewEnvironment(client, prompts, templates, metrics, pipeline.DefaultConfig())

	router := gin.Default()
	routes.SetupRoutes(router, env, templates)

	fmt.Fprintln(os.Stderr, "specforge listening on port "+port)
	return router.Run(":" + port)
}
