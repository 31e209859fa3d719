package mth5

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/go-mth5/hdf5"
	"github.com/robert-malhotra/go-mth5/internal/message"
)

// StandardEntry is one row of the metadata-standards summary: the definition
// of one filter metadata attribute.
type StandardEntry struct {
	Attribute   string
	Type        string
	Required    bool
	Style       string
	Units       string
	Description string
}

// StandardsGroup holds the /Survey/Standards summary: a compound dataset
// describing the filter metadata attributes this container uses, written
// once when the file is created so the file is self-describing.
type StandardsGroup struct {
	group  *hdf5.Group
	logger *slog.Logger
}

const summaryDatasetName = "summary"

// Fixed column widths of the summary table. Descriptions are capped at 300
// bytes to match the widest entry in the standard.
const (
	attributeWidth   = 72
	typeWidth        = 15
	styleWidth       = 72
	unitsWidth       = 32
	descriptionWidth = 300
	summaryRecordLen = attributeWidth + typeWidth + 1 + styleWidth + unitsWidth + descriptionWidth
)

func summaryDatatype() *message.Datatype {
	str := func(size uint32) *message.Datatype {
		return message.NewStringDatatype(size, message.PadNullPad, message.CharsetUTF8)
	}
	return message.NewCompoundDatatype(summaryRecordLen, []message.CompoundMember{
		{Name: "attribute", ByteOffset: 0, Type: str(attributeWidth)},
		{Name: "type", ByteOffset: attributeWidth, Type: str(typeWidth)},
		{Name: "required", ByteOffset: attributeWidth + typeWidth,
			Type: message.NewFixedPointDatatype(1, false, message.OrderLE)},
		{Name: "style", ByteOffset: attributeWidth + typeWidth + 1, Type: str(styleWidth)},
		{Name: "units", ByteOffset: attributeWidth + typeWidth + 1 + styleWidth, Type: str(unitsWidth)},
		{Name: "description", ByteOffset: attributeWidth + typeWidth + 1 + styleWidth + unitsWidth,
			Type: str(descriptionWidth)},
	})
}

// summaryRecord mirrors summaryDatatype member-for-member.
type summaryRecord struct {
	Attribute   string
	Type        string
	Required    bool
	Style       string
	Units       string
	Description string
}

// filterStandards is the attribute standard for the filter kinds this
// container stores.
var filterStandards = []StandardEntry{
	{"name", "string", true, "free form", "",
		"Unique name of the filter. The name is the key other metadata uses to reference the filter."},
	{"type", "string", true, "controlled vocabulary", "",
		"Filter representation: zpk, coefficient, time_delay or fap."},
	{"units_in", "string", true, "controlled vocabulary", "",
		"Units of the data entering the filter."},
	{"units_out", "string", true, "controlled vocabulary", "",
		"Units of the data leaving the filter."},
	{"gain", "float", true, "number", "",
		"Scalar gain of the filter applied across all frequencies."},
	{"normalization_factor", "float", false, "number", "",
		"Normalization factor of a pole-zero filter, applied to the rational polynomial response."},
	{"poles", "complex", false, "number list", "radians per second",
		"Poles of a pole-zero filter as (real, imaginary) pairs."},
	{"zeros", "complex", false, "number list", "radians per second",
		"Zeros of a pole-zero filter as (real, imaginary) pairs."},
	{"delay", "float", false, "number", "seconds",
		"Time delay of a time-delay filter. Positive values delay the signal."},
	{"frequencies", "float", false, "number list", "hertz",
		"Frequencies of a frequency-amplitude-phase table, one per row."},
	{"amplitudes", "float", false, "number list", "",
		"Amplitude response of a frequency-amplitude-phase table, one per row."},
	{"phases", "float", false, "number list", "radians",
		"Phase response of a frequency-amplitude-phase table, one per row."},
}

func newStandardsGroup(g *hdf5.Group, logger *slog.Logger, writable bool) (*StandardsGroup, error) {
	sg := &StandardsGroup{group: g, logger: logger}
	if writable {
		if err := sg.ensureSummary(); err != nil {
			return nil, err
		}
	}
	return sg, nil
}

// ensureSummary writes the summary dataset if the group does not already
// have one.
func (sg *StandardsGroup) ensureSummary() error {
	names, err := sg.group.Members()
	if err != nil {
		return fmt.Errorf("listing %s: %w", sg.group.Path(), err)
	}
	for _, name := range names {
		if name == summaryDatasetName {
			return nil
		}
	}

	records := make([]summaryRecord, len(filterStandards))
	for i, entry := range filterStandards {
		records[i] = summaryRecord{
			Attribute:   entry.Attribute,
			Type:        entry.Type,
			Required:    entry.Required,
			Style:       entry.Style,
			Units:       entry.Units,
			Description: entry.Description,
		}
	}

	ds, err := sg.group.CreateDatasetWithType(summaryDatasetName,
		[]uint64{uint64(len(records))}, summaryDatatype())
	if err != nil {
		return fmt.Errorf("creating standards summary: %w", err)
	}
	if err := ds.Write(records); err != nil {
		return fmt.Errorf("writing standards summary: %w", err)
	}
	return nil
}

// Summary reads the standards table back from the container.
func (sg *StandardsGroup) Summary() ([]StandardEntry, error) {
	ds, err := sg.group.OpenDataset(summaryDatasetName)
	if err != nil {
		return nil, fmt.Errorf("opening standards summary: %w", err)
	}

	rows, err := ds.ReadCompound()
	if err != nil {
		return nil, fmt.Errorf("reading standards summary: %w", err)
	}

	entries := make([]StandardEntry, 0, len(rows))
	for _, row := range rows {
		entry := StandardEntry{
			Attribute:   compoundString(row["attribute"]),
			Type:        compoundString(row["type"]),
			Style:       compoundString(row["style"]),
			Units:       compoundString(row["units"]),
			Description: compoundString(row["description"]),
		}
		switch v := row["required"].(type) {
		case byte:
			entry.Required = v != 0
		case int8:
			entry.Required = v != 0
		case int64:
			entry.Required = v != 0
		case uint64:
			entry.Required = v != 0
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func compoundString(v interface{}) string {
	s, _ := v.(string)
	return s
}
