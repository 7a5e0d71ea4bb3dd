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
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/SpecForge/services/specgen/llm"
	"github.com/AleutianAI/SpecForge/services/specgen/observability"
	"github.com/AleutianAI/SpecForge/services/specgen/pipeline"
	"github.com/AleutianAI/SpecForge/services/specgen/prompt"
	"github.com/AleutianAI/SpecForge/services/specgen/routes"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("specgen-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// configFromEnv assembles the pipeline config from the environment.
func configFromEnv() pipeline.Config {
	cfg := pipeline.DefaultConfig()

	if v := envInt("SPECFORGE_MAX_TOKENS"); v > 0 {
		cfg.MaxTokens = v
	}
	if v := os.Getenv("SPECFORGE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 && f <= 2 {
			cfg.Temperature = float32(f)
		} else {
			slog.Warn("ignoring invalid SPECFORGE_TEMPERATURE", "value", v)
		}
	}
	if v := envInt("SPECFORGE_MAX_RETRIES"); v > 0 {
		cfg.Retry.MaxAttempts = v
	}
	if v := envInt("SPECFORGE_BREAKER_THRESHOLD"); v > 0 {
		cfg.Breaker.FailureThreshold = v
	}
	if v := envInt("SPECFORGE_BREAKER_RECOVERY_MS"); v > 0 {
		cfg.Breaker.RecoveryTimeout = time.Duration(v) * time.Millisecond
	}
	if v := os.Getenv("SPECFORGE_EXPECTED_ERRORS"); v != "" {
		cfg.Breaker.ExpectedErrors = strings.Split(v, ",")
	}
	return cfg
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer environment variable", "name", name, "value", v)
		return 0
	}
	return n
}

func main() {
	port := os.Getenv("SPECGEN_PORT")
	if port == "" {
		port = "12270"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	llmClient, err := llm.NewOpenAIClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	prompts := prompt.NewSystemLoader("")
	if _, err := prompts.Load(); err != nil {
		log.Fatalf("FATAL: Could not load the system prompt: %v", err)
	}
	templates := prompt.LoadTemplateRegistry("")

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	env := pipeline.NewEnvironment(llmClient, prompts, templates, metrics, configFromEnv())

	router := gin.Default()
	router.Use(otelgin.Middleware("specgen-service"))
	routes.SetupRoutes(router, env, templates)

	log.Println("Starting the specgen server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
