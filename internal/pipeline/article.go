// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-arcade/autopush/internal/model"
)

// ParseArticle splits generated markdown into title and body. The first
// heading line becomes the title; without one the first non-empty line does.
func ParseArticle(raw string) (title, content string) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			content = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return title, content
		}
		title = trimmed
		content = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		return title, content
	}
	return "", ""
}

// FormatForGeneration renders source records as the plain-text block the
// generator receives as input.
func FormatForGeneration(records []model.SourceRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "category: %s\nissue: %s\ndate: %s\nnumbers: %s\n", r.Category, r.Issue, r.DrawDate, r.Numbers)
		if r.Detail != "" {
			fmt.Fprintf(&b, "detail: %s\n", r.Detail)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// Backup writes generated articles to the local filesystem, grouped by
// year/month, so content survives a publish failure.
type Backup struct {
	dir string
}

// NewBackup creates a backup writer rooted at dir.
func NewBackup(dir string) *Backup {
	if dir == "" {
		dir = "./output"
	}
	return &Backup{dir: dir}
}

// Save writes the article as markdown plus a JSON sidecar under
// <dir>/<YYYY>/<MM>/.
func (b *Backup) Save(article *model.Article, date string) error {
	now := time.Now()
	sub := filepath.Join(b.dir, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	base := fmt.Sprintf("article_%s_%s_%d", article.Category, date, now.UnixMilli())

	md := fmt.Sprintf("# %s\n\n%s\n", article.Title, article.Content)
	if err := os.WriteFile(filepath.Join(sub, base+".md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write article backup: %w", err)
	}

	meta, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal article meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sub, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("write article meta: %w", err)
	}
	return nil
}
