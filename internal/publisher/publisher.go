package publisher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/whyhi/wos/internal/canon"
	"github.com/whyhi/wos/internal/logger"
)

// Publisher writes deliverable artifacts as markdown files and records
// them in the canon store so later requests can retrieve them.
type Publisher struct {
	store   *canon.Store
	baseDir string
	mc      *minio.Client
	bucket  string
}

// Config holds output settings. MinIO fields are optional; when Endpoint
// is empty, artifacts are only written locally.
type Config struct {
	BaseDir   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New creates a publisher. The canon store may be nil, in which case
// published files are not indexed.
func New(store *canon.Store, cfg Config) (*Publisher, error) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "artifacts"
	}

	p := &Publisher{
		store:   store,
		baseDir: cfg.BaseDir,
		bucket:  cfg.Bucket,
	}

	if cfg.Endpoint != "" {
		mc, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		p.mc = mc
		if p.bucket == "" {
			p.bucket = "wos-artifacts"
		}
	}

	return p, nil
}

// Init creates the artifact bucket if object storage is configured.
func (p *Publisher) Init(ctx context.Context) error {
	if p.mc == nil {
		return nil
	}

	exists, err := p.mc.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.mc.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
		logger.Info("bucket created", "bucket", p.bucket)
	}

	return nil
}

// Doc is a markdown document to publish.
type Doc struct {
	Title        string
	Content      string
	Summary      string
	Type         string
	Category     string
	Tags         []string
	SourceIntent string
	AutoEmbed    bool
}

// Publish writes the document under <baseDir>/<category>/, uploads it to
// object storage when configured, and records it in canon. Returns the
// artifact ID and the local path.
func (p *Publisher) Publish(ctx context.Context, doc Doc) (string, string, error) {
	if doc.Title == "" {
		return "", "", fmt.Errorf("publish: missing title")
	}

	category := doc.Category
	if category == "" {
		category = "general"
	}

	slug := slugify(doc.Title)
	name := fmt.Sprintf("%s_%s.md", time.Now().Format("2006-01-02"), slug)
	dir := filepath.Join(p.baseDir, category)
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", doc.Title)
	buf.WriteString(doc.Content)
	if !strings.HasSuffix(doc.Content, "\n") {
		buf.WriteString("\n")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create dir %s: %w", dir, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}

	if p.mc != nil {
		object := category + "/" + name
		_, err := p.mc.PutObject(ctx, p.bucket, object, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
			ContentType: "text/markdown",
		})
		if err != nil {
			logger.Warn("artifact upload failed", "object", object, "error", err)
		} else {
			logger.Debug("artifact uploaded", "bucket", p.bucket, "object", object)
		}
	}

	artifactID := "artifact_" + time.Now().Format("20060102") + "_" + slug
	if p.store != nil {
		p.store.StoreArtifact(ctx, canon.ArtifactInput{
			ArtifactID: artifactID,
			Type:       orDefault(doc.Type, "document"),
			Title:      doc.Title,
			Content:    doc.Content,
			Summary:    doc.Summary,
			Category:   category,
			Tags:       doc.Tags,
			Source:     doc.SourceIntent,
			Metadata:   map[string]any{"file_path": path},
			AutoEmbed:  doc.AutoEmbed,
		})
	}

	logger.Info("artifact published", "id", artifactID, "path", path)
	return artifactID, path, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = slugPattern.ReplaceAllString(strings.ToLower(s), "_")
	s = strings.Trim(s, "_")
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
