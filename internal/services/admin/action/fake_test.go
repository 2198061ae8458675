package action

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/avo/internal/platform/errors"
)

type fakeResource struct {
	records  map[string]Record
	byIDs    [][]string
	byQuery  []string
	queryErr error
}

func newFakeResource(ids ...string) *fakeResource {
	records := map[string]Record{}
	for _, id := range ids {
		records[id] = Record{ID: id, Values: map[string]any{"id": id}}
	}
	return &fakeResource{records: records}
}

func (f *fakeResource) Name() string      { return "users" }
func (f *fakeResource) IndexPath() string { return "/resources/users" }

func (f *fakeResource) FindByID(_ context.Context, id string) (Record, error) {
	record, ok := f.records[id]
	if !ok {
		return Record{}, apperrors.New(apperrors.CodeRecordNotFound, "missing "+id)
	}
	return record, nil
}

func (f *fakeResource) FindByIDs(ctx context.Context, ids []string) ([]Record, error) {
	f.byIDs = append(f.byIDs, ids)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		record, err := f.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeResource) FindBySQL(_ context.Context, query string) ([]Record, error) {
	f.byQuery = append(f.byQuery, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]Record, 0, len(f.records))
	for _, id := range []string{"1", "2", "3", "4"} {
		if record, ok := f.records[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeResource) Hydrate(_ context.Context, h Hydration) (Hydration, error) {
	h.Columns = []string{"id"}
	return h, nil
}

// prefixDecrypter accepts tokens of the form "<purpose>:<message>".
type prefixDecrypter struct{}

func (prefixDecrypter) Decrypt(token string, purpose string) (string, error) {
	prefix := purpose + ":"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", errors.New("bad token")
	}
	return token[len(prefix):], nil
}

type stubAction struct {
	def  Definition
	resp Response
	err  error
}

func (s stubAction) Definition() Definition { return s.def }

func (s stubAction) Defaults(context.Context) map[string]string { return nil }

func (s stubAction) Handle(context.Context, Invocation) (Response, error) {
	return s.resp, s.err
}

func stubFactory(name string) Factory {
	return func(Context) Action {
		return stubAction{def: Definition{Name: name, Label: fmt.Sprintf("actions.%s.label", Underscore(name))}}
	}
}
