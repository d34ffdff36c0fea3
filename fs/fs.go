package appfs

import "embed"

// FS holds the assets shipped inside the binaries: SQL migrations, email templates
// and the application question catalogue.
//
//go:embed migrations/*.sql templates/email/* questions.yaml
var FS embed.FS
