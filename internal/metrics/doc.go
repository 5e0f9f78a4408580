/*
Package metrics provides Prometheus-based metrics collection for the shell
gateway.

# Overview

This package tracks HTTP request metrics, session lifecycle, command
execution outcomes, and streaming broker activity.

# Features

  - HTTP request metrics (latency, throughput, size)
  - Session metrics (active count, created, reaped)
  - Command metrics (duration, timeouts, rejections)
  - WebSocket connection metrics

# Usage

	m := metrics.New()
	router.Use(metrics.Middleware(m))

	timer := metrics.NewCommandTimer(m)
	// ... execute a command ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package metrics
