// Copyright 2022 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prometheus contains Prometheus-compliant metric data structures and utilities.
// It can export data in Prometheus data format, documented at:
// https://prometheus.io/docs/instrumenting/exposition_formats/
package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// timeNow is the time.Now() function. Can be mocked in tests.
var timeNow = time.Now

// Type is a Prometheus metric type.
type Type int

// List of supported Prometheus metric types.
const (
	TypeUntyped = Type(iota)
	TypeGauge
	TypeCounter
)

// Metric is a Prometheus metric metadata.
type Metric struct {
	// Name is the Prometheus metric name.
	Name string `json:"name"`

	// Type is the type of the metric.
	Type Type `json:"type"`

	// Help is an optional helpful string explaining what the metric is about.
	Help string `json:"help"`
}

// dtoType returns the client_model type of m.
func (m *Metric) dtoType() (dto.MetricType, error) {
	switch m.Type {
	case TypeUntyped:
		return dto.MetricType_UNTYPED, nil
	case TypeGauge:
		return dto.MetricType_GAUGE, nil
	case TypeCounter:
		return dto.MetricType_COUNTER, nil
	default:
		return 0, fmt.Errorf("unknown metric type for metric %s: %v", m.Name, m.Type)
	}
}

// Data is an observation of the value of a single metric at a certain point in time.
type Data struct {
	// Metric is the metric for which the value is being reported.
	Metric *Metric `json:"metric"`

	// Labels is a key-value pair representing the labels set on this metric.
	Labels map[string]string `json:"labels,omitempty"`

	// Value is the observed value.
	Value uint64 `json:"val"`
}

// NewIntData returns a new Data struct with the given metric and value.
func NewIntData(metric *Metric, val uint64) *Data {
	return &Data{Metric: metric, Value: val}
}

// LabeledIntData returns a new Data struct with the given metric, labels, and value.
func LabeledIntData(metric *Metric, labels map[string]string, val uint64) *Data {
	return &Data{Metric: metric, Labels: labels, Value: val}
}

// toDTO converts d to a client_model metric.
func (d *Data) toDTO(typ dto.MetricType, when time.Time) *dto.Metric {
	m := &dto.Metric{
		TimestampMs: proto.Int64(when.UnixMilli()),
	}
	names := make([]string, 0, len(d.Labels))
	for name := range d.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(name),
			Value: proto.String(d.Labels[name]),
		})
	}
	v := proto.Float64(float64(d.Value))
	switch typ {
	case dto.MetricType_COUNTER:
		m.Counter = &dto.Counter{Value: v}
	case dto.MetricType_GAUGE:
		m.Gauge = &dto.Gauge{Value: v}
	default:
		m.Untyped = &dto.Untyped{Value: v}
	}
	return m
}

// Snapshot is a snapshot of the values of all the metrics at a certain point in time.
type Snapshot struct {
	// When is the timestamp at which the snapshot was taken.
	// Note that Prometheus ultimately encodes timestamps as millisecond-precision int64s from epoch.
	When time.Time `json:"when,omitempty"`

	// Data is the whole snapshot data.
	// Each Data must be a unique combination of (Metric, Labels) within a Snapshot.
	Data []*Data `json:"data,omitempty"`
}

// NewSnapshot returns a new Snapshot at the current time.
func NewSnapshot() *Snapshot {
	return &Snapshot{When: timeNow()}
}

// Add data point(s) to the snapshot.
// Returns itself for chainability.
func (s *Snapshot) Add(data ...*Data) *Snapshot {
	s.Data = append(s.Data, data...)
	return s
}

// Families groups the snapshot into metric families sorted by name. prefix is
// prepended to all metric names.
func (s *Snapshot) Families(prefix string) ([]*dto.MetricFamily, error) {
	byName := make(map[string]*dto.MetricFamily)
	var names []string
	for _, d := range s.Data {
		typ, err := d.Metric.dtoType()
		if err != nil {
			return nil, err
		}
		name := prefix + d.Metric.Name
		mf, ok := byName[name]
		if !ok {
			mf = &dto.MetricFamily{
				Name: proto.String(name),
				Type: typ.Enum(),
			}
			if d.Metric.Help != "" {
				mf.Help = proto.String(d.Metric.Help)
			}
			byName[name] = mf
			names = append(names, name)
		} else if mf.GetType() != typ {
			return nil, fmt.Errorf("metric %s reported with types %v and %v", name, mf.GetType(), typ)
		}
		mf.Metric = append(mf.Metric, d.toDTO(typ, s.When))
	}
	sort.Strings(names)
	families := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		families = append(families, byName[name])
	}
	return families, nil
}

// ExportOptions contains options that control how metric data is exported in Prometheus format.
type ExportOptions struct {
	// CommentHeader is prepended as a comment before any metric data is exported.
	CommentHeader string

	// ExporterPrefix is prepended to all metric names.
	ExporterPrefix string
}

// Write writes the snapshot to the writer in the Prometheus text format. It
// returns the number of bytes written.
func Write(w io.Writer, options ExportOptions, s *Snapshot) (int, error) {
	families, err := s.Families(options.ExporterPrefix)
	if err != nil {
		return 0, err
	}
	var written int
	if options.CommentHeader != "" {
		var b strings.Builder
		for _, commentLine := range strings.Split(options.CommentHeader, "\n") {
			b.WriteString("# ")
			b.WriteString(commentLine)
			b.WriteString("\n")
		}
		n, err := io.WriteString(w, b.String())
		written += n
		if err != nil {
			return written, err
		}
	}
	for _, mf := range families {
		n, err := expfmt.MetricFamilyToText(w, mf)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Parse reads metric families in the Prometheus text format.
func Parse(data []byte) (map[string]*dto.MetricFamily, error) {
	return (&expfmt.TextParser{}).TextToMetricFamilies(bytes.NewReader(data))
}

// GetInteger returns the integer value of the metric with the given name and
// labels from parsed families.
func GetInteger(families map[string]*dto.MetricFamily, name string, wantLabels map[string]string) (uint64, error) {
	mf, ok := families[name]
	if !ok {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, m := range mf.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel()))
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		match := len(labels) == len(wantLabels)
		for k, v := range wantLabels {
			if labels[k] != v {
				match = false
			}
		}
		if !match {
			continue
		}
		switch {
		case m.Counter != nil:
			return uint64(m.GetCounter().GetValue()), nil
		case m.Gauge != nil:
			return uint64(m.GetGauge().GetValue()), nil
		default:
			return uint64(m.GetUntyped().GetValue()), nil
		}
	}
	return 0, fmt.Errorf("metric %q has no data point with labels %v", name, wantLabels)
}
