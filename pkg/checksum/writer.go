package checksum

import (
	"fmt"
	"io"
	"os"
	"sync"

	"emperror.dev/errors"
)

// ChecksumWriter fans written data out to one hashing goroutine per digest
// algorithm plus an optional passthrough destination.
type ChecksumWriter struct {
	writers  []*io.PipeWriter
	mw       io.Writer
	results  map[DigestAlgorithm]string
	errs     []error
	dataLock sync.Mutex
	done     chan bool
	waits    int
	closed   bool
}

func NewChecksumWriter(algorithms []DigestAlgorithm, dst io.Writer) *ChecksumWriter {
	cw := &ChecksumWriter{
		results: map[DigestAlgorithm]string{},
		done:    make(chan bool),
	}
	var writers []io.Writer
	for _, alg := range algorithms {
		pr, pw := io.Pipe()
		cw.writers = append(cw.writers, pw)
		writers = append(writers, pw)
		go cw.runHash(alg, pr)
		cw.waits++
	}
	if dst != nil {
		writers = append(writers, dst)
	}
	if len(writers) == 0 {
		writers = append(writers, &NullWriter{})
	}
	cw.mw = io.MultiWriter(writers...)
	return cw
}

func (cw *ChecksumWriter) runHash(alg DigestAlgorithm, reader io.Reader) {
	defer func() { cw.done <- true }()

	sink, err := GetHash(alg)
	if err != nil {
		cw.setError(errors.Errorf("invalid hash function %s", alg))
		_, _ = io.Copy(&NullWriter{}, reader)
		return
	}
	if _, err := io.Copy(sink, reader); err != nil {
		cw.setError(errors.Wrapf(err, "cannot create checksum %s", alg))
		return
	}
	cw.setResult(alg, fmt.Sprintf("%x", sink.Sum(nil)))
}

func (cw *ChecksumWriter) setResult(alg DigestAlgorithm, digest string) {
	cw.dataLock.Lock()
	defer cw.dataLock.Unlock()
	cw.results[alg] = digest
}

func (cw *ChecksumWriter) setError(err error) {
	cw.dataLock.Lock()
	defer cw.dataLock.Unlock()
	cw.errs = append(cw.errs, err)
}

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, errors.New("write on closed ChecksumWriter")
	}
	return cw.mw.Write(p)
}

func (cw *ChecksumWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	for _, pw := range cw.writers {
		_ = pw.Close()
	}
	for i := 0; i < cw.waits; i++ {
		<-cw.done
	}
	return errors.Combine(cw.errs...)
}

// GetChecksums returns the digests. Only valid after Close.
func (cw *ChecksumWriter) GetChecksums() map[DigestAlgorithm]string {
	cw.dataLock.Lock()
	defer cw.dataLock.Unlock()
	result := make(map[DigestAlgorithm]string, len(cw.results))
	for alg, digest := range cw.results {
		result[alg] = digest
	}
	return result
}

var _ io.WriteCloser = (*ChecksumWriter)(nil)

type NullWriter struct{}

func (*NullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

// Copy streams src to dst while computing the given digests.
func Copy(dst io.Writer, src io.Reader, algorithms []DigestAlgorithm) (map[DigestAlgorithm]string, error) {
	cw := NewChecksumWriter(algorithms, dst)
	if _, err := io.Copy(cw, src); err != nil {
		_ = cw.Close()
		return nil, errors.Wrap(err, "cannot copy")
	}
	if err := cw.Close(); err != nil {
		return nil, errors.Wrap(err, "error closing checksum writer")
	}
	return cw.GetChecksums(), nil
}

// Checksum computes a single digest over src.
func Checksum(src io.Reader, alg DigestAlgorithm) (string, error) {
	sink, err := GetHash(alg)
	if err != nil {
		return "", errors.Errorf("invalid checksum type %s", alg)
	}
	if _, err := io.Copy(sink, src); err != nil {
		return "", errors.Wrapf(err, "cannot create checksum %s", alg)
	}
	return fmt.Sprintf("%x", sink.Sum(nil)), nil
}

// DigestFile computes the given digests over the file at path.
func DigestFile(path string, algorithms []DigestAlgorithm) (map[DigestAlgorithm]string, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open '%s'", path)
	}
	defer fp.Close()
	result, err := Copy(&NullWriter{}, fp, algorithms)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot digest '%s'", path)
	}
	return result, nil
}
