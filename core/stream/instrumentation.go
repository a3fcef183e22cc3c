package stream

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-chat/core/stream"

var logger = otelslog.NewLogger(scopeName)
