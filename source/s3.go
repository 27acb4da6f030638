package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awslogging "github.com/aws/smithy-go/logging"
	"github.com/kokuin/kokuin/logging"
	"github.com/kokuin/kokuin/version"
)

const (
	s3Format string = "s3://<region>/<bucket>/<prefix>"
)

// customLogger adapts the structured logger to the AWS SDK logging interface.
type customLogger struct {
	*logging.Logger
}

func (l *customLogger) Logf(classification awslogging.Classification, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	switch classification {
	case awslogging.Warn:
		l.Warn(msg)
	case awslogging.Debug:
		l.Debug(msg)
	default:
		l.Info(msg)
	}
}

// S3 resolves the base version from the highest versioned prefix under an S3
// prefix, mirroring a release layout of <prefix>/<version>/....
type S3 struct {
	Bucket     string `schema:"-"`
	Prefix     string `schema:"-"`
	Region     string `schema:"region"`
	Endpoint   string `schema:"endpoint"`
	PreRelease bool   `schema:"pre-release"`
	cl         S3Client
	pager      ListObjectsV2Pager
	logger     *logging.Logger
}

// NewS3 returns S3.
func NewS3(ctx context.Context, u string, log *logging.Logger) (*S3, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	after, _ := strings.CutPrefix(ur.Path, "/")
	splitted := strings.SplitN(after, "/", 2)
	bucket := ""
	prefix := ""
	if len(splitted) > 0 {
		bucket = splitted[0]
	}
	if len(splitted) > 1 {
		prefix = strings.TrimPrefix(addTrailingSlash(splitted[1]), "/")
	}

	s := &S3{
		Region: ur.Host,
		Bucket: bucket,
		Prefix: prefix,
		logger: log,
	}
	if err = decoder.Decode(s, ur.Query()); err != nil {
		return nil, err
	}

	if s.Region == "" {
		return nil, fmt.Errorf("region is required: %s", s3Format)
	}
	if s.Bucket == "" {
		return nil, fmt.Errorf("bucket is required: %s", s3Format)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.Region),
		config.WithLogger(&customLogger{Logger: log}),
	)
	if err != nil {
		return nil, err
	}

	if s.Endpoint != "" {
		s.cl = s3.NewFromConfig(cfg, func(o *s3.Options) {
			// path-style: https://s3.region.amazonaws.com/<bucket>/<key>
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(s.Endpoint)
		})
	} else if e := os.Getenv("AWS_ENDPOINT_URL"); e != "" {
		s.cl = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	} else {
		s.cl = s3.NewFromConfig(cfg)
	}

	return s, nil
}

// String to string.
func (s *S3) String() string {
	var q []string
	var qstr string

	if s.Endpoint != "" {
		q = append(q, "endpoint="+s.Endpoint)
	}
	if s.PreRelease {
		q = append(q, "pre-release=true")
	}
	if len(q) > 0 {
		qstr = "?" + strings.Join(q, "&")
	}

	return fmt.Sprintf("%s://%s/%s/%s%s", s3Scheme, s.Region, s.Bucket, removeTrailingSlash(s.Prefix), qstr)
}

// BaseVersion returns the highest version below the prefix, bare.
func (s *S3) BaseVersion(ctx context.Context) (string, error) {
	_, ver, err := s.LatestVersion(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Resolved base version", slog.String("source", s.String()), slog.String("version", ver.String()))
	return ver.Bare(), nil
}

type S3Client interface {
	ListObjectsV2(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type ListObjectsV2Pager interface {
	HasMorePages() bool
	NextPage(context.Context, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func (s *S3) extractNameFromObjectKey(key, prefix string) string {
	return strings.TrimPrefix(removeTrailingSlash(key), prefix)
}

// LatestVersion lists common prefixes directly under Prefix and returns the
// highest semantic version among them.
func (s *S3) LatestVersion(ctx context.Context) (string, *version.SemVer, error) {
	pager := s.pager
	if pager == nil {
		pager = s3.NewListObjectsV2Paginator(s.cl, &s3.ListObjectsV2Input{
			Bucket:    aws.String(s.Bucket),
			Prefix:    aws.String(s.Prefix),
			Delimiter: aws.String("/"),
		})
	}

	var versionNames []string
	prefixMap := make(map[string]string)

	for pager.HasMorePages() {
		output, err := pager.NextPage(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("failed to list objects: %w", err)
		}
		// CommonPrefixes carries only the directories under the prefix.
		for _, obj := range output.CommonPrefixes {
			name := s.extractNameFromObjectKey(*obj.Prefix, s.Prefix)
			versionNames = append(versionNames, name)
			prefixMap[name] = *obj.Prefix
		}
	}

	latestVersion, latestName, err := version.FindLatestSemVer(versionNames, s.PreRelease)
	if err != nil {
		return "", nil, &VersionNotFoundError{
			Source:  s.String(),
			Message: fmt.Sprintf("no versioned prefix found: %s", s.String()),
		}
	}

	return prefixMap[latestName], latestVersion, nil
}
