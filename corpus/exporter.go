package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/jcooky/go-din"
	"github.com/samber/lo"

	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/productdata"
)

type (
	// Corpus is the ephemeral snapshot of one tenant's structured data,
	// produced for a single sync pass. Text is the flat blob handed to the
	// provider's indexer; Chunks carry the same data at per-record
	// granularity for the local vector index.
	Corpus struct {
		TenantID    string
		GeneratedAt time.Time
		Text        string
		Chunks      []Chunk
	}

	Chunk struct {
		ID       string
		Content  string
		Metadata map[string]any
	}

	Exporter struct {
		store  productdata.Store
		logger *mylog.Logger
	}

	sectionView struct {
		Type    string
		Failed  bool
		Records []recordView
	}

	recordView struct {
		Lines []string
	}

	corpusView struct {
		TenantID    string
		GeneratedAt string
		Sections    []sectionView
		Total       int
	}
)

const corpusTemplateText = `# Product Knowledge Export
Tenant: {{ .TenantID }}
Generated: {{ .GeneratedAt }}
{{- range .Sections }}

## {{ .Type | title }}
{{- if not .Records }}
None found.
{{- end }}
{{- range .Records }}
{{ range .Lines }}{{ . }}
{{ end }}
{{- end }}
{{- end }}
## Summary
{{- range .Sections }}
{{ .Type | title }}: {{ len .Records }}
{{- end }}
Total records: {{ .Total }}
`

var corpusTemplate = template.Must(
	template.New("corpus").Funcs(sprig.TxtFuncMap()).Parse(corpusTemplateText),
)

func NewExporter(store productdata.Store, logger *mylog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: logger,
	}
}

// Export flattens every record type for the tenant into a single corpus. A
// record type whose fetch reports failure renders as an empty section; export
// never fails closed on partial data.
func (e *Exporter) Export(ctx context.Context, tenantID string) (*Corpus, error) {
	if tenantID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "tenant id is empty")
	}

	now := time.Now().UTC()
	view := corpusView{
		TenantID:    tenantID,
		GeneratedAt: now.Format(time.RFC3339),
	}

	var chunks []Chunk
	for _, recordType := range productdata.AllRecordTypes {
		result := e.store.GetRecordsByType(ctx, tenantID, recordType)
		if !result.Success {
			e.logger.Warn("record fetch failed, exporting empty section",
				"tenant_id", tenantID,
				"record_type", string(recordType),
				"error", result.Error,
			)
			view.Sections = append(view.Sections, sectionView{Type: string(recordType), Failed: true})
			continue
		}

		section := sectionView{
			Type: string(recordType),
			Records: lo.Map(result.Data, func(record productdata.Record, _ int) recordView {
				return recordView{Lines: renderRecord(record)}
			}),
		}
		view.Sections = append(view.Sections, section)
		view.Total += len(result.Data)

		for _, record := range result.Data {
			chunks = append(chunks, buildChunk(tenantID, recordType, record))
		}
	}

	var sb strings.Builder
	if err := corpusTemplate.Execute(&sb, view); err != nil {
		return nil, errors.Wrapf(err, "failed to render corpus")
	}

	return &Corpus{
		TenantID:    tenantID,
		GeneratedAt: now,
		Text:        sb.String(),
		Chunks:      chunks,
	}, nil
}

func renderRecord(record productdata.Record) []string {
	lines := []string{fmt.Sprintf("- %s (id: %s)", record.Title, record.ID)}
	if record.Status != "" {
		lines = append(lines, "  status: "+record.Status)
	}
	if record.Priority != "" {
		lines = append(lines, "  priority: "+record.Priority)
	}

	keys := lo.Keys(record.Fields)
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %v", key, record.Fields[key]))
	}

	return lines
}

func buildChunk(tenantID string, recordType productdata.RecordType, record productdata.Record) Chunk {
	content := strings.Join(renderRecord(record), "\n")

	metadata := map[string]any{
		"tenant_id":   tenantID,
		"entity_type": string(recordType),
		"record_id":   record.ID,
	}
	if record.Status != "" {
		metadata["status"] = record.Status
	}
	if record.Priority != "" {
		metadata["priority"] = record.Priority
	}

	return Chunk{
		ID:       fmt.Sprintf("%s/%s/%s", tenantID, recordType, record.ID),
		Content:  content,
		Metadata: metadata,
	}
}

func init() {
	din.RegisterT(func(c *din.Container) (*Exporter, error) {
		logger, err := din.GetT[*mylog.Logger](c)
		if err != nil {
			return nil, err
		}
		store, err := din.GetT[productdata.Store](c)
		if err != nil {
			return nil, err
		}

		return NewExporter(store, logger), nil
	})
}
