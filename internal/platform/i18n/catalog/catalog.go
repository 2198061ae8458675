// Package catalog holds the admin message catalogs. Each YAML file under
// locales/<locale>/<namespace>.yaml contributes keys for one namespace, and
// the embedded set is registered with x/text/message at init.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale must be present in every bundle; lookups fall back to it.
const BaseLocale = "en-US"

const catalogGlob = "locales/*/*.yaml"

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustRegister(LoadEmbedded())

// Default returns the embedded bundle, already registered with x/text.
func Default() *Bundle { return defaultBundle }

// document is the on-disk shape of one catalog file.
type document struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeSet struct {
	tag        language.Tag
	namespaces map[string]map[string]string
}

func (l *localeSet) lookup(key string) (string, bool) {
	ns, _, ok := strings.Cut(key, ".")
	if !ok {
		return "", false
	}
	value, found := l.namespaces[ns][key]
	return value, found
}

func (l *localeSet) keys() []string {
	var out []string
	for _, messages := range l.namespaces {
		for key := range messages {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

// Bundle is an immutable set of locale catalogs.
type Bundle struct {
	locales map[string]*localeSet
}

// LoadEmbedded parses the catalogs compiled into this package.
func LoadEmbedded() (*Bundle, error) { return LoadFromFS(embedded) }

// LoadFromFS parses every locales/*/*.yaml file in fsys. The directory
// names the locale, the file stem names the namespace, and both must
// agree with the document header.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	files, err := fs.Glob(fsys, catalogGlob)
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no catalog files found")
	}
	slices.Sort(files)

	b := &Bundle{locales: make(map[string]*localeSet)}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if err := b.merge(file, doc); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is missing", BaseLocale)
	}
	return b, nil
}

func decode(raw []byte) (document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return document{}, errors.New("catalog is empty")
		}
		return document{}, fmt.Errorf("decode yaml: %w", err)
	}
	doc.Locale = strings.TrimSpace(doc.Locale)
	doc.Namespace = strings.TrimSpace(doc.Namespace)
	switch {
	case doc.Locale == "":
		return document{}, errors.New("locale is required")
	case doc.Namespace == "":
		return document{}, errors.New("namespace is required")
	case len(doc.Messages) == 0:
		return document{}, errors.New("messages are required")
	}
	return doc, nil
}

func (b *Bundle) merge(file string, doc document) error {
	dir, name := path.Split(file)
	if want := path.Base(dir); doc.Locale != want {
		return fmt.Errorf("locale %q does not match directory %q", doc.Locale, want)
	}
	if want := strings.TrimSuffix(name, path.Ext(name)); doc.Namespace != want {
		return fmt.Errorf("namespace %q does not match file name %q", doc.Namespace, want)
	}

	set := b.locales[doc.Locale]
	if set == nil {
		tag, err := language.Parse(doc.Locale)
		if err != nil {
			return fmt.Errorf("parse locale %q: %w", doc.Locale, err)
		}
		set = &localeSet{tag: tag, namespaces: make(map[string]map[string]string)}
		b.locales[doc.Locale] = set
	}
	if _, dup := set.namespaces[doc.Namespace]; dup {
		return fmt.Errorf("namespace %q defined twice for %s", doc.Namespace, doc.Locale)
	}

	prefix := doc.Namespace + "."
	messages := make(map[string]string, len(doc.Messages))
	for key, value := range doc.Messages {
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, prefix) || key == prefix {
			return fmt.Errorf("key %q is outside namespace %q", key, doc.Namespace)
		}
		if _, dup := messages[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		messages[key] = value
	}
	set.namespaces[doc.Namespace] = messages
	return nil
}

// Register installs every message with x/text/message under the locale's
// full tag and, when it differs, its bare language tag.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, name := range b.Locales() {
		set := b.locales[name]
		targets := []language.Tag{set.tag}
		if base, conf := set.tag.Base(); conf != language.No {
			if bare := language.Make(base.String()); bare.String() != set.tag.String() {
				targets = append(targets, bare)
			}
		}
		for _, key := range set.keys() {
			value, _ := set.lookup(key)
			for _, tag := range targets {
				if err := message.SetString(tag, key, value); err != nil {
					return fmt.Errorf("register %s %s: %w", tag, key, err)
				}
			}
		}
	}
	return nil
}

// HasLocale reports whether locale has at least one namespace loaded.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales lists loaded locale names in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for name := range b.locales {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Tags returns the language tags of every loaded locale with the base
// locale first, suitable for a language.Matcher.
func (b *Bundle) Tags() []language.Tag {
	if b == nil {
		return nil
	}
	out := make([]language.Tag, 0, len(b.locales))
	if base, ok := b.locales[BaseLocale]; ok {
		out = append(out, base.tag)
	}
	for _, name := range b.Locales() {
		if name != BaseLocale {
			out = append(out, b.locales[name].tag)
		}
	}
	return out
}

// Namespace returns a copy of the messages of one namespace.
func (b *Bundle) Namespace(locale, namespace string) map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	set, ok := b.locales[strings.TrimSpace(locale)]
	if !ok {
		return out
	}
	for key, value := range set.namespaces[strings.TrimSpace(namespace)] {
		out[key] = value
	}
	return out
}

// Keys lists every key defined for locale, sorted.
func (b *Bundle) Keys(locale string) []string {
	if b == nil {
		return nil
	}
	set, ok := b.locales[strings.TrimSpace(locale)]
	if !ok {
		return nil
	}
	return set.keys()
}

// Missing lists the base locale keys that locale does not translate.
func (b *Bundle) Missing(locale string) []string {
	if b == nil {
		return nil
	}
	set, ok := b.locales[strings.TrimSpace(locale)]
	if !ok {
		return b.Keys(BaseLocale)
	}
	var out []string
	for _, key := range b.Keys(BaseLocale) {
		if _, found := set.lookup(key); !found {
			out = append(out, key)
		}
	}
	return out
}

// Message looks key up in locale, then in the base locale.
func (b *Bundle) Message(locale, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if b == nil || key == "" {
		return "", false
	}
	if set, ok := b.locales[strings.TrimSpace(locale)]; ok {
		if value, found := set.lookup(key); found {
			return value, true
		}
	}
	if base, ok := b.locales[BaseLocale]; ok {
		return base.lookup(key)
	}
	return "", false
}

func mustRegister(b *Bundle, err error) *Bundle {
	if err == nil {
		err = b.Register()
	}
	if err != nil {
		panic(fmt.Sprintf("i18n catalog: %v", err))
	}
	return b
}
