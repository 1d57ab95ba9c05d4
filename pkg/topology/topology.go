// Package topology reads deployment descriptor documents: JSON files
// describing the interrogators, cables and acquisitions of a DAS
// installation. A descriptor carries no samples, so the reader produces
// one placeholder section per described acquisition, with a zero-length
// sample axis and the acquisition geometry filled in, and classifies the
// deployment from the document structure.
package topology

import (
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/logger"
)

// Classification names the deployment case a descriptor falls in. The
// first three cases are structural; the last three derive from the single
// cable's sensing environment.
type Classification string

const (
	MultipleInterrogatorsSingleCable Classification = "multiple-interrogators-single-cable"
	ActiveSurvey                     Classification = "active-survey"
	SingleInterrogatorMultipleCable  Classification = "single-interrogator-multiple-cable"
	DirectBuried                     Classification = "direct-buried"
	DarkFiber                        Classification = "dark-fiber"
	BoreholeCable                    Classification = "borehole-cable"
)

// Deployment is a classified descriptor: the deployment case plus one
// placeholder section per described acquisition.
type Deployment struct {
	Case     Classification
	Sections []*das.Section
}

// document mirrors the descriptor layout: an Overview holding the
// interrogator and cable lists. Everything else in the document is
// preserved opaquely under each section's Headers.
type document struct {
	Overview overview `json:"Overview"`
}

type overview struct {
	Interrogator []interrogator `json:"Interrogator"`
	Cable        []cable        `json:"Cable"`
}

type interrogator struct {
	Acquisition []acquisition `json:"Acquisition"`
}

type acquisition struct {
	Attributes acquisitionAttrs `json:"Attributes"`
}

// acquisitionAttrs keeps the optional geometry fields as pointers: absent
// keys stay nil and flow into the metadata sentinels unchanged.
type acquisitionAttrs struct {
	Channels    int      `json:"number_of_channels"`
	Spacing     *float64 `json:"spatial_sampling_interval"`
	SampleRate  *float64 `json:"acquisition_sample_rate"`
	GaugeLength *float64 `json:"gauge_length"`
}

type cable struct {
	Attributes cableAttrs `json:"Attributes"`
}

type cableAttrs struct {
	Environment string `json:"cable_environment"`
}

// Read loads and classifies the descriptor document at path.
func Read(path string) (*Deployment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO,
			"read descriptor %s", path)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"descriptor %s is not a deployment document", path)
	}
	var headers map[string]interface{}
	if err := json.Unmarshal(raw, &headers); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"descriptor %s is not a deployment document", path)
	}

	dep, err := classify(doc.Overview, headers)
	if err != nil {
		return nil, err
	}
	for _, sec := range dep.Sections {
		sec.Source = path
	}

	logger.Debug("classified deployment",
		zap.String("case", string(dep.Case)),
		zap.Int("sections", len(dep.Sections)))
	return dep, nil
}

// classify applies the case precedence: interrogator count first, then the
// acquisition count of the single interrogator, then cable count, then the
// single cable's environment.
func classify(ov overview, headers map[string]interface{}) (*Deployment, error) {
	if len(ov.Interrogator) == 0 {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"descriptor describes no interrogators")
	}

	if len(ov.Interrogator) > 1 {
		secs := make([]*das.Section, 0, len(ov.Interrogator))
		for i, ir := range ov.Interrogator {
			if len(ir.Acquisition) == 0 {
				return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
					"interrogator %d describes no acquisitions", i)
			}
			sec, err := placeholder(ir.Acquisition[0].Attributes, headers)
			if err != nil {
				return nil, err
			}
			secs = append(secs, sec)
		}
		return &Deployment{Case: MultipleInterrogatorsSingleCable, Sections: secs}, nil
	}

	acqs := ov.Interrogator[0].Acquisition
	if len(acqs) == 0 {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"interrogator describes no acquisitions")
	}
	if len(acqs) > 1 {
		secs := make([]*das.Section, 0, len(acqs))
		for _, acq := range acqs {
			sec, err := placeholder(acq.Attributes, headers)
			if err != nil {
				return nil, err
			}
			secs = append(secs, sec)
		}
		return &Deployment{Case: ActiveSurvey, Sections: secs}, nil
	}

	c, err := cableCase(ov.Cable)
	if err != nil {
		return nil, err
	}
	sec, err := placeholder(acqs[0].Attributes, headers)
	if err != nil {
		return nil, err
	}
	return &Deployment{Case: c, Sections: []*das.Section{sec}}, nil
}

// cableCase maps the cable layout onto the single-interrogator cases. The
// environment vocabulary is fixed: trench, conduit, wireline and "outside
// borehole casing".
func cableCase(cables []cable) (Classification, error) {
	if len(cables) == 0 {
		return "", errors.Newf(errors.ErrorTypeMalformedContainer,
			"descriptor describes no cables")
	}
	if len(cables) > 1 {
		return SingleInterrogatorMultipleCable, nil
	}
	switch env := cables[0].Attributes.Environment; env {
	case "trench":
		return DirectBuried, nil
	case "conduit":
		return DarkFiber, nil
	case "wireline", "outside borehole casing":
		return BoreholeCable, nil
	default:
		return "", errors.Newf(errors.ErrorTypeMalformedContainer,
			"unrecognized cable environment %q", env)
	}
}

// placeholder builds the empty section for one acquisition: a
// (channels, 0) matrix plus the acquisition geometry, with the whole
// document preserved under Headers.
func placeholder(attrs acquisitionAttrs, headers map[string]interface{}) (*das.Section, error) {
	if attrs.Channels <= 0 {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"acquisition declares no channel count")
	}
	m, err := das.NewMatrix(attrs.Channels, 0)
	if err != nil {
		return nil, err
	}
	meta := das.CanonicalMetadata{
		SamplingRate:   attrs.SampleRate,
		ChannelSpacing: attrs.Spacing,
		GaugeLength:    attrs.GaugeLength,
		StartTime:      dastime.EpochZero(),
		Headers:        headers,
	}
	return das.NewSection(m, meta), nil
}
