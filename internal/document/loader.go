// Package document retrieves OpenAPI and Swagger documents and decodes them
// into an untyped YAML tree.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/gologger"
	"gopkg.in/yaml.v3"
)

const (
	userAgent = "apidocs/1.0"
	acceptAll = "application/yaml, application/json;q=0.9, text/plain;q=0.8, */*;q=0.5"

	errorEmptyLocator  = "empty locator"
	errorBuildRequest  = "failed to build request: %w"
	errorReadBody      = "failed to read response body: %w"
	errorReadFile      = "failed to read file: %w"
	errorDocumentLimit = "document exceeds %d bytes"
)

// Loader reads documents by locator. The zero value reads local files and
// fetches http(s) URLs with http.DefaultClient.
//
// A Loader holds no per-call state, so one instance can serve concurrent
// loads.
type Loader struct {
	// Root is prepended to filesystem locators. With a Root set every path
	// locator, including one starting with "/", is treated as relative to it.
	Root string
	// BaseURL, when set, resolves non-URL locators against it instead of the
	// filesystem.
	BaseURL string
	// Client is used for http(s) locators.
	Client *http.Client
	// MaxBytes caps the document size; 0 means no limit.
	MaxBytes int64
}

// Load retrieves the document named by locator and decodes it.
func (l *Loader) Load(ctx context.Context, locator string) (*yaml.Node, error) {
	data, err := l.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	return Decode(locator, data)
}

// Fetch retrieves the raw text of a document without decoding it.
func (l *Loader) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, &RetrievalError{Locator: locator, Err: errors.New(errorEmptyLocator)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RetrievalError{Locator: locator, Err: err}
	}

	target, remote := l.resolve(locator)

	var (
		data []byte
		err  error
	)
	if remote {
		data, err = l.fetchHTTP(ctx, locator, target)
	} else {
		data, err = l.readFile(locator, target)
	}
	if err != nil {
		return nil, err
	}

	gologger.Verbose().Str("locator", locator).Msgf("read %d bytes from %s", len(data), target)
	return data, nil
}

// resolve returns the concrete target for locator and whether it is remote.
func (l *Loader) resolve(locator string) (string, bool) {
	if u, err := url.Parse(locator); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return locator, true
		case "file":
			return l.joinRoot(u.Path), false
		}
	}

	if l.BaseURL != "" {
		base, err := url.Parse(l.BaseURL)
		if err == nil {
			ref, err := url.Parse(locator)
			if err == nil {
				return base.ResolveReference(ref).String(), true
			}
		}
	}

	return l.joinRoot(locator), false
}

func (l *Loader) joinRoot(p string) string {
	if l.Root == "" {
		return filepath.FromSlash(p)
	}
	return filepath.Join(l.Root, filepath.FromSlash(p))
}

func (l *Loader) fetchHTTP(ctx context.Context, locator, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: fmt.Errorf(errorBuildRequest, err)}
	}
	req.Header.Set("Accept", acceptAll)
	req.Header.Set("User-Agent", userAgent)

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RetrievalError{
			Locator:    locator,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	data, err := l.readAll(resp.Body)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: fmt.Errorf(errorReadBody, err)}
	}
	return data, nil
}

func (l *Loader) readFile(locator, target string) ([]byte, error) {
	f, err := os.Open(target)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: fmt.Errorf(errorReadFile, err)}
	}
	defer f.Close()

	data, err := l.readAll(f)
	if err != nil {
		return nil, &RetrievalError{Locator: locator, Err: fmt.Errorf(errorReadFile, err)}
	}
	return data, nil
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.MaxBytes {
		return nil, fmt.Errorf(errorDocumentLimit, l.MaxBytes)
	}
	return data, nil
}

// Decode parses YAML (or JSON) text into a node tree. The returned node is
// the document node; an empty input yields a node with zero Kind.
func Decode(locator string, data []byte) (*yaml.Node, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Locator: locator, Err: err}
	}
	return &root, nil
}
