// Package all registers every built-in dialect. Import it for side effects:
//
//	import _ "github.com/textloom/textloom/internal/formats/all"
package all

import (
	_ "github.com/textloom/textloom/internal/formats/biltable"
	_ "github.com/textloom/textloom/internal/formats/docjson"
	_ "github.com/textloom/textloom/internal/formats/xliff"
)
