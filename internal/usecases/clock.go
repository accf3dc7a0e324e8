package usecases

import "time"

// timeNow is an injectable seam for the current instant, following the
// teacher's package-level injectable-function-var pattern (main.go's
// loadDotenv/loadCfg) so time-sensitive logic is deterministic in tests.
var timeNow = time.Now
