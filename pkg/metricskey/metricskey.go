package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsChainStepsSkipped = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_chain_steps_skipped",
		Help:         "stats_chain_steps_skipped provides total chain steps skipped by condition",
		RequiredTags: []string{"tool"},
	}

	StatsChainRunsSucceeded = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_chain_runs_succeeded",
		Help: "stats_chain_runs_succeeded provides total chain runs succeeded",
	}

	StatsChainRunsFailed = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_chain_runs_failed",
		Help: "stats_chain_runs_failed provides total chain runs with a failed step",
	}
)

// Perf
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfChainRun = metrics.Describe{
		Type: metrics.TypeSample,
		Name: "perf_chain_run",
		Help: "perf_chain_run provides duration of chain run",
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfChainRun,
	&PerfToolCall,
	&StatsChainRunsFailed,
	&StatsChainRunsSucceeded,
	&StatsChainStepsSkipped,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}
