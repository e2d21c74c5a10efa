package checker

import (
	"errors"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ccollicutt/logwindow/pkg/evaluator"
	"github.com/ccollicutt/logwindow/pkg/mapfile"
	"github.com/ccollicutt/logwindow/pkg/scanner"
)

// sniffLen is how much of a file's head is inspected for magic numbers.
const sniffLen = 262

type openFunc func(fsys afero.Fs, path string) (*mapfile.File, error)

// Processor scans single files with one Evaluator.
type Processor struct {
	fs   afero.Fs
	eval *evaluator.Evaluator
	log  zerolog.Logger
	open openFunc
}

// NewProcessor creates a Processor reading through fsys.
func NewProcessor(fsys afero.Fs, eval *evaluator.Evaluator, log zerolog.Logger) *Processor {
	return &Processor{
		fs:   fsys,
		eval: eval,
		log:  log,
		open: mapfile.Open,
	}
}

// Process scans the file at path from its last line backward.
//
// Non-regular and empty files are not processed. A file whose first bytes
// carry a known binary signature is not scanned at all. A line which is not
// UTF-8 ends the scan: the file is not counted as processed, but the matches
// found in the newer lines before it still count. A scan ending on a too-old
// line is processed and keeps its matches too.
//
// Errors opening or reading the file are returned; mapfile.ErrTooLarge
// among them must abort the run.
func (p *Processor) Process(path string) (FileResult, error) {
	res := FileResult{Path: path}

	mf, err := p.open(p.fs, path)
	if errors.Is(err, mapfile.ErrNotRegular) {
		res.Reason = ReasonNotFile
		return res, nil
	}
	if err != nil {
		return res, err
	}
	defer mf.Close()

	buf := mf.Bytes()
	if len(buf) == 0 {
		res.Reason = ReasonEmpty
		return res, nil
	}
	if kind, ok := binaryKind(buf); ok {
		p.log.Debug().Str("file", path).Str("type", kind).Msg("binary signature, not scanning")
		res.Reason = ReasonNotUTF8
		return res, nil
	}

	s := scanner.New(buf)
	for {
		line, ok := s.Next()
		if !ok {
			break
		}
		res.Lines++

		outcome, ts := p.eval.Inspect(line)
		switch outcome {
		case evaluator.Match:
			res.Matches++
		case evaluator.TooOld:
			p.log.Debug().Str("file", path).Time("timestamp", ts).Int("line", res.Lines).Msg("reached window boundary")
			res.Reason = ReasonTooOld
			res.Processed = true
			return res, nil
		case evaluator.NotUTF8:
			p.log.Debug().Str("file", path).Int("line", res.Lines).Msg("line is not utf8")
			res.Reason = ReasonNotUTF8
			return res, nil
		}
	}

	res.Reason = ReasonEOF
	res.Processed = true
	return res, nil
}

// binaryKind reports the detected type of buf when its head is not text
// and matches a known file signature.
func binaryKind(buf []byte) (string, bool) {
	head := buf[:min(len(buf), sniffLen)]
	if utf8.Valid(head) {
		return "", false
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}
