package storyblok

import (
	"encoding/json"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// indexedKeyPattern matches the "[n]" suffix, URL encoded, that indexed list
// encoding leaves in front of each value.
var indexedKeyPattern = regexp.MustCompile(`%5B(?:[0-9]|[1-9][0-9]+)%5D=`)

// FlattenQuery rewrites an indexed query string such as
// "tags%5B0%5D=a&tags%5B1%5D=b" into repeated keys ("tags=a&tags=b").
// Non-numeric brackets, as in filter_query[component][in], are kept.
func FlattenQuery(query string) string {
	return indexedKeyPattern.ReplaceAllString(query, "=")
}

type optionValue struct {
	items []string
	list  bool
}

// Options is an ordered set of request options. Each key holds a single
// string or a list of strings. The zero value and a nil *Options are empty.
type Options struct {
	keys   []string
	values map[string]optionValue
}

// NewOptions creates an empty option set.
func NewOptions() *Options {
	return &Options{values: make(map[string]optionValue)}
}

// OptionsFromValues builds options from url.Values. Keys are sorted; keys
// with several values become lists.
func OptionsFromValues(values url.Values) *Options {
	o := NewOptions()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		if len(values[k]) == 1 {
			o.Set(k, values[k][0])
		} else {
			o.SetList(k, values[k]...)
		}
	}

	return o
}

func (o *Options) put(key string, value optionValue) *Options {
	if o.values == nil {
		o.values = make(map[string]optionValue)
	}

	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.values[key] = value

	return o
}

// Set stores a single value. An existing key keeps its position.
func (o *Options) Set(key, value string) *Options {
	return o.put(key, optionValue{items: []string{value}})
}

// SetList stores a list value, sent as repeated keys.
func (o *Options) SetList(key string, values ...string) *Options {
	items := make([]string, len(values))
	copy(items, values)

	return o.put(key, optionValue{items: items, list: true})
}

// Del removes a key.
func (o *Options) Del(key string) *Options {
	if o == nil {
		return o
	}

	if _, ok := o.values[key]; !ok {
		return o
	}

	delete(o.values, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}

	return o
}

// Has reports whether key is set.
func (o *Options) Has(key string) bool {
	if o == nil {
		return false
	}

	_, ok := o.values[key]

	return ok
}

// Get returns the first value for key, or "".
func (o *Options) Get(key string) string {
	if o == nil {
		return ""
	}

	v := o.values[key]
	if len(v.items) == 0 {
		return ""
	}

	return v.items[0]
}

// Values returns every value stored for key.
func (o *Options) Values(key string) []string {
	if o == nil {
		return nil
	}

	return o.values[key].items
}

// Keys returns the keys in insertion order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}

	keys := make([]string, len(o.keys))
	copy(keys, o.keys)

	return keys
}

// Len returns the number of keys.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Clone returns a deep copy. Cloning nil yields an empty set.
func (o *Options) Clone() *Options {
	out := NewOptions()
	if o == nil {
		return out
	}

	for _, k := range o.keys {
		v := o.values[k]
		items := make([]string, len(v.items))
		copy(items, v.items)
		out.put(k, optionValue{items: items, list: v.list})
	}

	return out
}

// Merge returns a new set holding o's keys followed by the keys only present
// in other. When both define a key, other's value wins and o's position is
// kept.
func (o *Options) Merge(other *Options) *Options {
	out := o.Clone()
	if other == nil {
		return out
	}

	for _, k := range other.keys {
		out.put(k, other.values[k])
	}

	return out
}

// Encode serializes the options as a URL query string. Lists are emitted as
// repeated keys.
func (o *Options) Encode() string {
	return FlattenQuery(o.encodeIndexed())
}

// encodeIndexed writes lists as key[0]=a&key[1]=b, the form produced by
// generic form encoders.
func (o *Options) encodeIndexed() string {
	if o.Len() == 0 {
		return ""
	}

	var b strings.Builder

	for _, k := range o.keys {
		v := o.values[k]
		if !v.list {
			writePair(&b, url.QueryEscape(k), v.items[0])

			continue
		}

		for i, item := range v.items {
			writePair(&b, url.QueryEscape(k+"["+strconv.Itoa(i)+"]"), item)
		}
	}

	return b.String()
}

func writePair(b *strings.Builder, escapedKey, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}

	b.WriteString(escapedKey)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

// ToValues converts the options to url.Values.
func (o *Options) ToValues() url.Values {
	values := make(url.Values, o.Len())
	if o == nil {
		return values
	}

	for _, k := range o.keys {
		values[k] = append([]string(nil), o.values[k].items...)
	}

	return values
}

// MarshalJSON encodes the options as a JSON object in insertion order.
func (o *Options) MarshalJSON() ([]byte, error) {
	var b strings.Builder

	b.WriteByte('{')

	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				b.WriteByte(',')
			}

			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}

			v := o.values[k]

			var val []byte
			if v.list {
				val, err = json.Marshal(v.items)
			} else {
				val, err = json.Marshal(v.items[0])
			}

			if err != nil {
				return nil, err
			}

			b.Write(key)
			b.WriteByte(':')
			b.Write(val)
		}
	}

	b.WriteByte('}')

	return []byte(b.String()), nil
}

// Common delivery options.

// WithStartsWith filters stories or tags by slug prefix.
func (o *Options) WithStartsWith(slug string) *Options {
	return o.Set("starts_with", slug)
}

// WithTags filters stories by tag.
func (o *Options) WithTags(tags ...string) *Options {
	return o.Set("with_tag", strings.Join(tags, ","))
}

// WithSortBy orders stories, e.g. "created_at:desc".
func (o *Options) WithSortBy(sortBy string) *Options {
	return o.Set("sort_by", sortBy)
}

// WithPerPage sets the page size.
func (o *Options) WithPerPage(perPage int) *Options {
	return o.Set("per_page", strconv.Itoa(perPage))
}

// WithPage selects a page.
func (o *Options) WithPage(page int) *Options {
	return o.Set("page", strconv.Itoa(page))
}
