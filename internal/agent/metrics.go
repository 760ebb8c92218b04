package agent

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_sessions_started_total",
        Help: "Total voice agent sessions started",
    })

    metricSetupFailures = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_setup_failures_total",
        Help: "Total sessions that failed during connect/handshake",
    })

    metricMicFrames = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_mic_frames_total",
        Help: "Total mic audio frames accepted into the uplink queue",
    })

    metricMicDrops = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_mic_frames_dropped_total",
        Help: "Total mic audio frames dropped (stale session or full queue)",
    })

    metricMicBytes = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_mic_bytes_total",
        Help: "Total mic audio bytes forwarded to the remote endpoint",
    })

    metricControlMessages = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "agent_control_messages_total",
        Help: "Control messages received on the downlink, by type",
    }, []string{"type"})

    metricFunctionCalls = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "agent_function_calls_total",
        Help: "Function call requests dispatched, by name",
    }, []string{"name"})

    metricSpeakerFrames = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_speaker_frames_total",
        Help: "Synthesized audio frames emitted to the client",
    })

    metricSpeakerDrops = promauto.NewCounter(prometheus.CounterOpts{
        Name: "agent_speaker_frames_dropped_total",
        Help: "Synthesized audio frames dropped under backpressure",
    })
)
