package mth5

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/robert-malhotra/go-mth5/hdf5"
)

const (
	// FileType is the value of the file.type root attribute.
	FileType = "MTH5"
	// FileVersion is the container version written to new files.
	FileVersion = "0.1.0"

	// supportedVersions is the range of file versions this package can
	// read and write.
	supportedVersions = ">= 0.1.0, < 0.2.0"

	surveyGroupName    = "Survey"
	filtersGroupName   = "Filters"
	standardsGroupName = "Standards"
)

// File is an open MTH5 container. It owns the underlying store handle;
// Close releases it. A File is not safe for concurrent use.
type File struct {
	h      *hdf5.File
	logger *slog.Logger

	version   string
	survey    *hdf5.Group
	filters   *FiltersGroup
	standards *StandardsGroup
}

// Option configures how a container is opened or created.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	strictAdd bool
}

func defaultOptions() *options {
	return &options{logger: slog.Default()}
}

// WithLogger sets the logger used for debug-level notices (idempotent adds,
// tolerated decode gaps).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictFilterAdds makes FiltersGroup.AddFilter surface name collisions
// as errors instead of returning the existing group.
func WithStrictFilterAdds() Option {
	return func(o *options) {
		o.strictAdd = true
	}
}

// Create creates a new MTH5 container at path with the standard group
// skeleton: /Survey with Filters and Standards subgroups.
func Create(path string, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	h, err := hdf5.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating MTH5 file: %w", err)
	}

	f := &File{h: h, logger: o.logger, version: FileVersion}
	if err := f.initSkeleton(o); err != nil {
		h.Close()
		return nil, err
	}
	return f, nil
}

// Open opens an existing MTH5 container read-only.
func Open(path string, opts ...Option) (*File, error) {
	return open(path, false, opts...)
}

// OpenReadWrite opens an existing MTH5 container for reading and writing.
func OpenReadWrite(path string, opts ...Option) (*File, error) {
	return open(path, true, opts...)
}

func open(path string, writable bool, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var (
		h   *hdf5.File
		err error
	)
	if writable {
		h, err = hdf5.OpenReadWrite(path)
	} else {
		h, err = hdf5.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening MTH5 file: %w", err)
	}

	f := &File{h: h, logger: o.logger}
	if err := f.validate(); err != nil {
		h.Close()
		return nil, err
	}
	if err := f.attach(o); err != nil {
		h.Close()
		return nil, err
	}
	return f, nil
}

// Close flushes and releases the underlying store handle. The File and any
// group handles obtained from it must not be used afterwards.
func (f *File) Close() error {
	return f.h.Close()
}

// Path returns the file path of the container.
func (f *File) Path() string {
	return f.h.Path()
}

// Version returns the container's file.version attribute.
func (f *File) Version() string {
	return f.version
}

// FiltersGroup returns the filter registry of the container.
func (f *File) FiltersGroup() *FiltersGroup {
	return f.filters
}

// StandardsGroup returns the metadata-standards summary of the container.
func (f *File) StandardsGroup() *StandardsGroup {
	return f.standards
}

// initSkeleton builds the group layout and root attributes of a new file.
func (f *File) initSkeleton(o *options) error {
	root := f.h.Root()
	if err := root.SetAttrs(map[string]interface{}{
		"file.type":    FileType,
		"file.version": FileVersion,
		"data_level":   int64(1),
	}); err != nil {
		return fmt.Errorf("writing root attributes: %w", err)
	}

	survey, err := root.CreateGroup(surveyGroupName)
	if err != nil {
		return fmt.Errorf("creating %s group: %w", surveyGroupName, err)
	}
	f.survey = survey

	filtersG, err := survey.CreateGroup(filtersGroupName)
	if err != nil {
		return fmt.Errorf("creating %s group: %w", filtersGroupName, err)
	}
	f.filters, err = newFiltersGroup(filtersG, f.logger, true, o.strictAdd)
	if err != nil {
		return err
	}

	standardsG, err := survey.CreateGroup(standardsGroupName)
	if err != nil {
		return fmt.Errorf("creating %s group: %w", standardsGroupName, err)
	}
	f.standards, err = newStandardsGroup(standardsG, f.logger, true)
	return err
}

// validate checks the root attributes of an existing file: it must identify
// as MTH5 and carry a version within the supported range.
func (f *File) validate() error {
	root := f.h.Root()

	typeAttr := root.Attr("file.type")
	if typeAttr == nil {
		return fmt.Errorf("%s: missing file.type attribute: %w", f.h.Path(), ErrNotMTH5)
	}
	fileType, err := typeAttr.ReadScalarString()
	if err != nil {
		return fmt.Errorf("reading file.type: %w", err)
	}
	if fileType != FileType {
		return fmt.Errorf("%s: file.type is %q: %w", f.h.Path(), fileType, ErrNotMTH5)
	}

	versionAttr := root.Attr("file.version")
	if versionAttr == nil {
		return fmt.Errorf("%s: missing file.version attribute: %w", f.h.Path(), ErrNotMTH5)
	}
	fileVersion, err := versionAttr.ReadScalarString()
	if err != nil {
		return fmt.Errorf("reading file.version: %w", err)
	}

	v, err := goversion.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("parsing file.version %q: %w", fileVersion, err)
	}
	constraint, err := goversion.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("file version %s is outside supported range %q: %w",
			fileVersion, supportedVersions, ErrIncompatibleVersion)
	}

	f.version = fileVersion
	return nil
}

// attach opens the group skeleton of an existing file, creating missing
// pieces when the file is writable.
func (f *File) attach(o *options) error {
	root := f.h.Root()

	survey, err := ensureChildGroup(root, surveyGroupName, f.h.IsWritable())
	if err != nil {
		return fmt.Errorf("opening %s group: %w", surveyGroupName, err)
	}
	f.survey = survey

	filtersG, err := ensureChildGroup(survey, filtersGroupName, f.h.IsWritable())
	if err != nil {
		return fmt.Errorf("opening %s group: %w", filtersGroupName, err)
	}
	f.filters, err = newFiltersGroup(filtersG, f.logger, f.h.IsWritable(), o.strictAdd)
	if err != nil {
		return err
	}

	standardsG, err := ensureChildGroup(survey, standardsGroupName, f.h.IsWritable())
	if err != nil {
		return fmt.Errorf("opening %s group: %w", standardsGroupName, err)
	}
	f.standards, err = newStandardsGroup(standardsG, f.logger, f.h.IsWritable())
	return err
}

// ensureChildGroup opens a child group, creating it first when the file is
// writable and the child does not exist yet.
func ensureChildGroup(parent *hdf5.Group, name string, writable bool) (*hdf5.Group, error) {
	if writable {
		g, err := parent.CreateGroup(name)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, hdf5.ErrExists) {
			return nil, err
		}
	}
	return parent.OpenGroup(name)
}

// SanitizeName replaces the path separator in a filter name with a safe
// substitute so the name can be used as a child-group name.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, "/", " per ")
}
