package asset

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// A Resource is a readable stream for a local file or a remote http(s)
// document. Resources referenced by another resource (material libraries,
// textures) are resolved relative to it.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Get the path or URL of the resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Get the file name of the resource without any directory or URL prefix.
func (r *Resource) Name() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return filepath.Base(r.url.Path)
}

// Get the lower-case file extension of the resource including the dot.
func (r *Resource) Ext() string {
	return strings.ToLower(filepath.Ext(r.Name()))
}

// Check whether the resource is streamed over http(s).
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Read the entire resource into memory. Decoders that need random access
// use this for remote resources.
func (r *Resource) Bytes() ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resource: could not read '%s': %w", r.Path(), err)
	}
	return data, nil
}

// Get a random access reader for the resource contents and its size.
func (r *Resource) ReaderAt() (io.ReaderAt, int64, error) {
	if f, isFile := r.ReadCloser.(*os.File); isFile {
		info, err := f.Stat()
		if err != nil {
			return nil, 0, fmt.Errorf("resource: could not stat '%s': %w", r.Path(), err)
		}
		return f, info.Size(), nil
	}

	data, err := r.Bytes()
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// Resolve the location of a resource. Relative locations without a scheme
// are resolved against the directory of relTo when it is specified.
func resolve(location string, relTo *Resource) (*url.URL, error) {
	loc, err := url.Parse(strings.Replace(location, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}
	if loc.Scheme != "" || relTo == nil || filepath.IsAbs(loc.Path) {
		return loc, nil
	}

	if relTo.IsRemote() {
		return relTo.url.ResolveReference(&url.URL{Path: loc.Path}), nil
	}

	base, err := filepath.Abs(relTo.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo.Path(), err.Error())
	}
	return &url.URL{Path: filepath.Join(filepath.Dir(base), loc.Path)}, nil
}

// Open a resource. If relTo is specified and location does not define a
// scheme, then location is resolved relative to relTo.
//
// The caller must close the returned resource.
func NewResource(location string, relTo *Resource) (*Resource, error) {
	loc, err := resolve(location, relTo)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		if reader, err = os.Open(filepath.Clean(loc.Path)); err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(loc.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", loc.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", loc.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

// Wrap a reader as a resource with the given name. Relative references are
// resolved against the directory part of name.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(name)
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
	}
}
