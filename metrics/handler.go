// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package metrics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ContentType is the content type of the text exposition format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Handler returns the exposition endpoint. It renders a registry
// snapshot on every call, holds no state and never mutates the
// registry. A rendering failure yields a 500 on this endpoint only.
func Handler(reg *Registry, log *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := WriteExposition(&buf, reg.Snapshot()); err != nil {
			log.Errorf("failed to render metrics exposition: %v", err)
			http.Error(w, "failed to render metrics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", ContentType)
		if _, err := w.Write(buf.Bytes()); err != nil {
			// The scraper went away mid-response; nothing to recover.
			log.Debugf("failed to write metrics response: %v", err)
		}
	})
}

// WriteExposition renders families in the text exposition format: a
// HELP and TYPE header per family, then one line per series. Histogram
// series expand to cumulative _bucket lines (including le="+Inf"),
// _sum and _count. Families without series emit only their headers.
func WriteExposition(w io.Writer, families []FamilySnapshot) error {
	for _, f := range families {
		if f.Help != "" {
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n", f.Name, escapeHelp(f.Help)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "# TYPE %s %s\n", f.Name, f.Kind); err != nil {
			return err
		}

		for _, s := range f.Series {
			if err := writeSeries(w, f, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSeries(w io.Writer, f FamilySnapshot, s SeriesSnapshot) error {
	if len(s.LabelValues) != len(f.LabelNames) {
		return fmt.Errorf("inconsistent snapshot: metric %s has %d label names but a series with %d values",
			f.Name, len(f.LabelNames), len(s.LabelValues))
	}

	switch f.Kind {
	case KindHistogram:
		for i, bound := range f.Buckets {
			labels := labelString(f.LabelNames, s.LabelValues, "le", formatFloat(bound))
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", f.Name, labels, s.BucketCounts[i]); err != nil {
				return err
			}
		}
		labels := labelString(f.LabelNames, s.LabelValues, "le", "+Inf")
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", f.Name, labels, s.Count); err != nil {
			return err
		}
		base := labelString(f.LabelNames, s.LabelValues, "", "")
		if _, err := fmt.Fprintf(w, "%s_sum%s %s\n", f.Name, base, formatFloat(s.Sum)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s_count%s %d\n", f.Name, base, s.Count)
		return err
	default:
		labels := labelString(f.LabelNames, s.LabelValues, "", "")
		_, err := fmt.Fprintf(w, "%s%s %s\n", f.Name, labels, formatFloat(s.Value))
		return err
	}
}

// labelString renders {k="v",...}, optionally with one extra pair
// appended (the histogram le label). An empty set renders as "".
func labelString(names, values []string, extraName, extraValue string) string {
	if len(names) == 0 && extraName == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(values[i]))
		b.WriteByte('"')
	}
	if extraName != "" {
		if len(names) > 0 {
			b.WriteByte(',')
		}
		b.WriteString(extraName)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(extraValue))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabelValue(v string) string {
	return labelValueEscaper.Replace(v)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeHelp(h string) string {
	return helpEscaper.Replace(h)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
