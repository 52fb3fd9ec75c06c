package document

import (
	"strconv"

	"github.com/Kush-Singh-26/aksara/builder/utils"
)

// Format selects the output of Process.
type Format int

const (
	Markdown Format = iota
	HTML
)

func (f Format) String() string {
	if f == HTML {
		return "html"
	}
	return "markdown"
}

// Process converts src in format f. With a cache configured, output for
// an unchanged source under the same engine fingerprint and options is
// served from the cache under key.
func (c *Converter) Process(key string, src []byte, f Format) ([]byte, error) {
	if c.opts.Cache == nil || key == "" {
		return c.run(src, f)
	}

	settings, err := c.Settings(src)
	if err != nil {
		return nil, err
	}
	fp, err := c.engine.Fingerprint(settings.Variant)
	if err != nil {
		return nil, err
	}
	sourceHash := utils.HashStrings(
		utils.HashContent(src), fp, f.String(),
		string(settings.Variant), string(settings.Direction),
		strconv.FormatBool(settings.Stem), strconv.FormatBool(c.opts.Minify), c.opts.Highlight,
	)
	key = utils.NormalizeCacheKey(key)

	if out, ok, err := c.opts.Cache.GetDocument(key, sourceHash); err != nil {
		c.logger.Warn("Document cache read failed", "path", key, "error", err)
	} else if ok {
		c.logger.Debug("Document cache hit", "path", key)
		return out, nil
	}

	out, err := c.run(src, f)
	if err != nil {
		return nil, err
	}
	if err := c.opts.Cache.PutDocument(key, sourceHash, out); err != nil {
		c.logger.Warn("Document cache write failed", "path", key, "error", err)
	}
	return out, nil
}

func (c *Converter) run(src []byte, f Format) ([]byte, error) {
	if f == HTML {
		return c.RenderHTML(src)
	}
	return c.Convert(src)
}
