package recording

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/handiism/spikeview/internal/model"
)

// recordingTimeFormats are tried in order for "rec_datetime".
var recordingTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Decode builds a Block from a JSON recording document.
//
// The document layout is:
//
//	{
//	  "name": "session1",
//	  "description": "...",
//	  "file_origin": "l101210-001",
//	  "rec_datetime": "2010-12-10T13:37:00Z",
//	  "segments": [
//	    {"name": "seg0", "index": 0, "t_start": 0, "t_stop": 10,
//	     "spiketrains": [
//	       {"name": "ch1#0", "channel_id": 1, "unit_id": 0, "units": "s",
//	        "t_start": 0, "t_stop": 10, "times": [0.1, 0.5, 1.2],
//	        "waveforms": [[...], ...]}
//	     ]}
//	  ]
//	}
//
// Missing fields take zero values, a missing train "units" becomes "s" and a
// missing segment "index" becomes its array position. Spike trains are
// filtered by opts.Units and waveforms are dropped unless
// opts.LoadWaveforms is set.
//
// Every error returned wraps ErrLoad.
func Decode(data []byte, opts LoadOptions) (*model.Block, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrLoad, "recording is not valid JSON")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.Wrap(ErrLoad, "recording must be a JSON object")
	}

	block := &model.Block{
		Name:        doc.Get("name").String(),
		Description: doc.Get("description").String(),
		FileOrigin:  doc.Get("file_origin").String(),
	}

	if ts := doc.Get("rec_datetime").String(); ts != "" {
		recordedAt, err := parseRecordingTime(ts)
		if err != nil {
			return nil, err
		}
		block.RecordedAt = recordedAt
	}

	segments := doc.Get("segments")
	if !segments.Exists() || segments.Type == gjson.Null {
		return block, nil
	}
	if !segments.IsArray() {
		return nil, errors.Wrap(ErrLoad, "segments must be an array")
	}

	for i, raw := range segments.Array() {
		seg, err := decodeSegment(raw, i, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d", i)
		}
		block.Segments = append(block.Segments, seg)
	}

	return block, nil
}

func decodeSegment(raw gjson.Result, pos int, opts LoadOptions) (*model.Segment, error) {
	if !raw.IsObject() {
		return nil, errors.Wrap(ErrLoad, "segment must be an object")
	}

	seg := &model.Segment{
		Name:  raw.Get("name").String(),
		Index: pos,
	}
	if idx := raw.Get("index"); idx.Exists() {
		seg.Index = int(idx.Int())
	}

	var err error
	if seg.TStart, seg.TStop, err = decodeBounds(raw); err != nil {
		return nil, err
	}

	trains := raw.Get("spiketrains")
	if !trains.Exists() || trains.Type == gjson.Null {
		return seg, nil
	}
	if !trains.IsArray() {
		return nil, errors.Wrap(ErrLoad, "spiketrains must be an array")
	}

	for i, rawTrain := range trains.Array() {
		st, err := decodeSpikeTrain(rawTrain, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "spike train %d", i)
		}
		if !opts.keepUnit(st.UnitID) {
			continue
		}
		seg.SpikeTrains = append(seg.SpikeTrains, st)
	}

	return seg, nil
}

func decodeSpikeTrain(raw gjson.Result, opts LoadOptions) (*model.SpikeTrain, error) {
	if !raw.IsObject() {
		return nil, errors.Wrap(ErrLoad, "spike train must be an object")
	}

	st := &model.SpikeTrain{
		Name:      raw.Get("name").String(),
		ChannelID: int(raw.Get("channel_id").Int()),
		UnitID:    int(raw.Get("unit_id").Int()),
		Units:     raw.Get("units").String(),
	}
	if st.Units == "" {
		st.Units = model.DefaultTimeUnits
	}

	var err error
	if st.TStart, st.TStop, err = decodeBounds(raw); err != nil {
		return nil, err
	}

	if st.Times, err = decodeNumbers(raw.Get("times"), "times"); err != nil {
		return nil, err
	}

	if opts.LoadWaveforms {
		waveforms := raw.Get("waveforms")
		if waveforms.Exists() && waveforms.Type != gjson.Null {
			if !waveforms.IsArray() {
				return nil, errors.Wrap(ErrLoad, "waveforms must be an array")
			}
			for i, w := range waveforms.Array() {
				samples, err := decodeNumbers(w, "waveform")
				if err != nil {
					return nil, errors.Wrapf(err, "waveform %d", i)
				}
				st.Waveforms = append(st.Waveforms, samples)
			}
		}
	}

	return st, nil
}

// decodeBounds reads t_start and t_stop. A t_stop given and lower than
// t_start is rejected.
func decodeBounds(raw gjson.Result) (float64, float64, error) {
	start, err := decodeNumber(raw.Get("t_start"), "t_start")
	if err != nil {
		return 0, 0, err
	}
	stopRaw := raw.Get("t_stop")
	stop, err := decodeNumber(stopRaw, "t_stop")
	if err != nil {
		return 0, 0, err
	}
	if stopRaw.Exists() && stop < start {
		return 0, 0, errors.Wrapf(ErrLoad, "t_stop %g is before t_start %g", stop, start)
	}
	return start, stop, nil
}

func decodeNumber(raw gjson.Result, field string) (float64, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return 0, nil
	}
	if raw.Type != gjson.Number {
		return 0, errors.Wrapf(ErrLoad, "%s must be a number, got %s", field, raw.Raw)
	}
	v := raw.Float()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.Wrapf(ErrLoad, "%s is not finite: %s", field, raw.Raw)
	}
	return v, nil
}

func decodeNumbers(raw gjson.Result, field string) ([]float64, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return nil, nil
	}
	if !raw.IsArray() {
		return nil, errors.Wrapf(ErrLoad, "%s must be an array", field)
	}

	items := raw.Array()
	values := make([]float64, 0, len(items))
	for i, item := range items {
		v, err := decodeNumber(item, field)
		if err != nil {
			return nil, errors.Wrapf(err, "index %d", i)
		}
		if item.Type != gjson.Number {
			return nil, errors.Wrapf(ErrLoad, "%s index %d is null", field, i)
		}
		values = append(values, v)
	}
	return values, nil
}

func parseRecordingTime(s string) (time.Time, error) {
	for _, layout := range recordingTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrLoad, "unable to parse rec_datetime %q", s)
}
