package web

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricClients = promauto.NewGauge(prometheus.GaugeOpts{
        Name: "web_clients_connected",
        Help: "Browser websocket clients currently connected",
    })

    metricEventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "web_events_emitted_total",
        Help: "Events broadcast to browser clients, by event name",
    }, []string{"event"})

    metricEmitErrors = promauto.NewCounter(prometheus.CounterOpts{
        Name: "web_emit_errors_total",
        Help: "Failed event writes to browser clients",
    })

    metricModelRequests = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "web_tts_model_requests_total",
        Help: "Catalog passthrough requests, by outcome",
    }, []string{"outcome"})
)
