package s3

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FakeBucket is an in-process, path-style S3 bucket. It serves the object
// calls the Store makes (head, get, put, delete and ListObjectsV2) so the S3
// backend and the state storage built on it can be tested offline.
type FakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	calls   map[string]int
}

type fakeObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

// NewFake returns a Store wired to a fresh FakeBucket named "fake-bucket".
func NewFake() (*Store, *FakeBucket) {
	bucket := &FakeBucket{objects: make(map[string]fakeObject), calls: make(map[string]int)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("fake", "fake", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: bucket}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("http://fake.s3.invalid")
	})
	return &Store{client: client, bucket: "fake-bucket"}, bucket
}

// Calls reports how many requests used method.
func (b *FakeBucket) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// RoundTrip implements http.RoundTripper.
func (b *FakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[req.Method]++

	// Path is /<bucket>/<key>.
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	query := req.URL.Query()

	switch {
	case req.Method == http.MethodGet && query.Get("list-type") == "2":
		return b.list(query.Get("prefix"))
	case req.Method == http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if plain, ok := decodeAWSChunked(body); ok {
			body = plain
		}
		b.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), modified: time.Now().UTC()}
		return reply(http.StatusOK, nil, http.Header{"ETag": {`"fake"`}}), nil
	case req.Method == http.MethodDelete:
		delete(b.objects, key)
		return reply(http.StatusNoContent, nil, nil), nil
	case req.Method == http.MethodGet || req.Method == http.MethodHead:
		obj, ok := b.objects[key]
		if !ok {
			return reply(http.StatusNotFound, nil, nil), nil
		}
		h := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Last-Modified":  {obj.modified.Format(http.TimeFormat)},
			"ETag":           {`"fake"`},
		}
		if req.Method == http.MethodHead {
			return reply(http.StatusOK, nil, h), nil
		}
		return reply(http.StatusOK, obj.body, h), nil
	}
	return reply(http.StatusNotImplemented, nil, nil), nil
}

type listResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	IsTruncated bool          `xml:"IsTruncated"`
	Contents    []listContent `xml:"Contents"`
}

type listContent struct {
	Key          string `xml:"Key"`
	Size         int    `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

func (b *FakeBucket) list(prefix string) (*http.Response, error) {
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := listResult{}
	for _, k := range keys {
		obj := b.objects[k]
		out.Contents = append(out.Contents, listContent{
			Key:          k,
			Size:         len(obj.body),
			LastModified: obj.modified.Format(time.RFC3339),
		})
	}
	body, err := xml.Marshal(out)
	if err != nil {
		return nil, err
	}
	return reply(http.StatusOK, body, http.Header{"Content-Type": {"application/xml"}}), nil
}

func reply(status int, body []byte, h http.Header) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// decodeAWSChunked unwraps a single-chunk aws-chunked body
// ("<hex size>[;ext]\r\n<data>\r\n0\r\n...").
func decodeAWSChunked(b []byte) ([]byte, bool) {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return nil, false
	}
	sizeHex, _, _ := bytes.Cut(head, []byte(";"))
	size, err := strconv.ParseInt(string(sizeHex), 16, 64)
	if err != nil || size < 0 || int64(len(rest)) < size+2 {
		return nil, false
	}
	data, tail := rest[:size], rest[size:]
	if !bytes.HasPrefix(tail, []byte("\r\n0")) {
		return nil, false
	}
	return data, true
}
