package settings

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-chat/core/settings"

var logger = otelslog.NewLogger(scopeName)
