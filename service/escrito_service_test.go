package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goyo-backend/models"
	"goyo-backend/storage"
)

type fakeEscritoStore struct {
	escritos []*models.EscritoLegal
}

func (f *fakeEscritoStore) Create(ctx context.Context, e *models.EscritoLegal) error {
	e.ID = uuid.New()
	f.escritos = append(f.escritos, e)
	return nil
}

func (f *fakeEscritoStore) GetByID(ctx context.Context, id uuid.UUID) (*models.EscritoLegal, error) {
	for _, e := range f.escritos {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEscritoStore) GetByNombre(ctx context.Context, nombre string) (*models.EscritoLegal, error) {
	for _, e := range f.escritos {
		if e.Nombre == nombre {
			return e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEscritoStore) List(ctx context.Context, tipo string) ([]*models.EscritoLegal, error) {
	var out []*models.EscritoLegal
	for _, e := range f.escritos {
		if tipo == "" || e.Tipo == tipo {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeArchive is an in-memory object store
type fakeArchive struct {
	objects map[string]string
	deleted []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string]string)}
}

func (f *fakeArchive) Put(ctx context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = string(b)
	return nil
}

func (f *fakeArchive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeArchive) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)
	}
}

func TestCreateTemplate_RequiresNombreAndContenido(t *testing.T) {
	svc := NewEscritoService(EscritoWithStore(&fakeEscritoStore{}))
	_, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{Nombre: "demanda"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestCreateTemplate_EmbedsContent(t *testing.T) {
	store := &fakeEscritoStore{}
	svc := NewEscritoService(
		EscritoWithStore(store),
		EscritoWithEmbedder(&fakeEmbedder{ready: true}),
	)

	escrito, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		Nombre:            "demanda base",
		Tipo:              "demanda",
		ContenidoTemplate: "DEMANDA ante {{TRIBUNAL}}",
	})
	if err != nil {
		t.Fatalf("CreateTemplate returned error: %v", err)
	}
	if len(escrito.Embedding) == 0 {
		t.Error("template content not embedded")
	}
	if len(store.escritos) != 1 {
		t.Errorf("%d templates stored, want 1", len(store.escritos))
	}
}

func TestCreateTemplate_DuplicateNombre(t *testing.T) {
	store := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "demanda base", Tipo: "demanda", ContenidoTemplate: "x"},
	}}
	svc := NewEscritoService(EscritoWithStore(store))

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		Nombre:            "demanda base",
		ContenidoTemplate: "otro contenido",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if len(store.escritos) != 1 {
		t.Errorf("%d templates stored, want the original 1", len(store.escritos))
	}
}

func TestGetTemplate_ReturnsStored(t *testing.T) {
	escrito := &models.EscritoLegal{ID: uuid.New(), Nombre: "demanda base", Tipo: "demanda"}
	svc := NewEscritoService(EscritoWithStore(&fakeEscritoStore{escritos: []*models.EscritoLegal{escrito}}))

	got, err := svc.GetTemplate(context.Background(), escrito.ID)
	if err != nil {
		t.Fatalf("GetTemplate returned error: %v", err)
	}
	if got.Nombre != "demanda base" {
		t.Errorf("nombre = %q", got.Nombre)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	svc := NewEscritoService(EscritoWithStore(&fakeEscritoStore{}))
	_, err := svc.GetTemplate(context.Background(), uuid.New())
	if !errors.Is(err, ErrEscritoNotFound) {
		t.Fatalf("got %v, want ErrEscritoNotFound", err)
	}
}

func TestGenerarEscrito_SubstitutesPlaceholders(t *testing.T) {
	expediente := &models.Expediente{
		ID:       uuid.New(),
		Numero:   "EXP-2026-042",
		Tribunal: "Primera Sala",
		Materia:  "civil",
		Partes:   "Pérez vs. García",
	}
	expStore := newFakeExpedienteStore(expediente)

	template := strings.Repeat("x", 600) + `
Expediente {{EXPEDIENTE_NUMERO}} ante {{TRIBUNAL}} ({{MATERIA}})
Partes: {{PARTES}}
Monto reclamado: {{MONTO}}
Fecha: {{FECHA_ACTUAL}}, {{FECHA_ACTUAL_LETRAS}}`
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "demanda base", Tipo: "demanda", ContenidoTemplate: template},
	}}

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(expStore),
		EscritoWithClock(fixedClock()),
	)

	result, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID:         expediente.ID,
		TipoEscrito:          "demanda",
		InformacionAdicional: map[string]string{"monto": "$120,000"},
	})
	if err != nil {
		t.Fatalf("GenerarEscrito returned error: %v", err)
	}

	for _, want := range []string{
		"Expediente EXP-2026-042 ante Primera Sala (civil)",
		"Partes: Pérez vs. García",
		"Monto reclamado: $120,000",
		"Fecha: 12/05/2026, 12 de mayo de 2026",
	} {
		if !strings.Contains(result.Contenido, want) {
			t.Errorf("contenido missing %q:\n%s", want, result.Contenido)
		}
	}
	if strings.Contains(result.Contenido, "{{") {
		t.Errorf("unsubstituted placeholder left in contenido:\n%s", result.Contenido)
	}
	if len(expStore.added) != 1 {
		t.Fatalf("%d documentos stored, want 1", len(expStore.added))
	}
	if expStore.added[0].TipoDocumento != "demanda" {
		t.Errorf("documento tipo = %q", expStore.added[0].TipoDocumento)
	}
}

func TestGenerarEscrito_EnrichesShortOutput(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New(), Numero: "EXP-1"}
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "corta", Tipo: "promocion", ContenidoTemplate: "Escrito breve {{EXPEDIENTE_NUMERO}}"},
	}}
	gen := &fakeGenerator{available: true, reply: "Escrito ampliado y profesional"}

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(newFakeExpedienteStore(expediente)),
		EscritoWithGenerator(gen),
		EscritoWithClock(fixedClock()),
	)

	result, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "promocion",
	})
	if err != nil {
		t.Fatalf("GenerarEscrito returned error: %v", err)
	}
	if result.Contenido != "Escrito ampliado y profesional" {
		t.Errorf("contenido = %q, want the enriched text", result.Contenido)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator saw %d prompts, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "Escrito breve EXP-1") {
		t.Error("enrichment prompt does not carry the substituted template")
	}
}

func TestGenerarEscrito_LongOutputSkipsEnrichment(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New()}
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "larga", Tipo: "demanda", ContenidoTemplate: strings.Repeat("y", 600)},
	}}
	gen := &fakeGenerator{available: true, reply: "should not be used"}

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(newFakeExpedienteStore(expediente)),
		EscritoWithGenerator(gen),
	)

	if _, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "demanda",
	}); err != nil {
		t.Fatalf("GenerarEscrito returned error: %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator saw %d prompts, want 0", len(gen.prompts))
	}
}

func TestGenerarEscrito_StoresEmbeddedDocument(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New()}
	expStore := newFakeExpedienteStore(expediente)
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "larga", Tipo: "demanda", ContenidoTemplate: strings.Repeat("y", 600)},
	}}

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(expStore),
		EscritoWithEmbedder(&fakeEmbedder{ready: true}),
	)

	result, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "demanda",
	})
	if err != nil {
		t.Fatalf("GenerarEscrito returned error: %v", err)
	}
	if len(expStore.added) != 1 {
		t.Fatalf("%d documentos stored, want 1", len(expStore.added))
	}
	if len(expStore.added[0].Embedding) == 0 {
		t.Error("stored documento has no embedding")
	}
	if result.DocumentoID != expStore.added[0].ID {
		t.Error("result does not reference the stored documento")
	}
}

func TestGenerarEscrito_ArchivesDocument(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New(), Numero: "EXP-1"}
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "larga", Tipo: "demanda", ContenidoTemplate: strings.Repeat("y", 600)},
	}}
	archive := newFakeArchive()

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(newFakeExpedienteStore(expediente)),
		EscritoWithArchive(archive),
	)

	result, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "demanda",
	})
	if err != nil {
		t.Fatalf("GenerarEscrito returned error: %v", err)
	}
	if len(archive.objects) != 1 {
		t.Fatalf("%d objects archived, want 1", len(archive.objects))
	}
	for key, body := range archive.objects {
		if !strings.HasPrefix(key, "escritos/"+expediente.ID.String()+"/") {
			t.Errorf("archive key = %q", key)
		}
		if body != result.Contenido {
			t.Error("archived copy differs from the generated contenido")
		}
	}
}

func TestGenerarEscrito_ArchiveRemovedWhenStoreFails(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New(), Numero: "EXP-1"}
	expStore := newFakeExpedienteStore(expediente)
	expStore.addDocumentoErr = errors.New("connection reset")
	escritoStore := &fakeEscritoStore{escritos: []*models.EscritoLegal{
		{ID: uuid.New(), Nombre: "larga", Tipo: "demanda", ContenidoTemplate: strings.Repeat("y", 600)},
	}}
	archive := newFakeArchive()

	svc := NewEscritoService(
		EscritoWithStore(escritoStore),
		EscritoWithExpedienteStore(expStore),
		EscritoWithArchive(archive),
	)

	if _, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "demanda",
	}); err == nil {
		t.Fatal("expected the store failure to surface")
	}
	if len(archive.objects) != 0 {
		t.Errorf("%d objects left in archive after rollback, want 0", len(archive.objects))
	}
	if len(archive.deleted) != 1 {
		t.Errorf("%d archived objects removed, want 1", len(archive.deleted))
	}
}

func TestGenerarEscrito_NoTemplateForTipo(t *testing.T) {
	expediente := &models.Expediente{ID: uuid.New()}
	svc := NewEscritoService(
		EscritoWithStore(&fakeEscritoStore{}),
		EscritoWithExpedienteStore(newFakeExpedienteStore(expediente)),
	)

	_, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: expediente.ID,
		TipoEscrito:  "apelacion",
	})
	if !errors.Is(err, ErrEscritoNotFound) {
		t.Fatalf("got %v, want ErrEscritoNotFound", err)
	}
}

func TestGenerarEscrito_ExpedienteNotFound(t *testing.T) {
	svc := NewEscritoService(
		EscritoWithStore(&fakeEscritoStore{}),
		EscritoWithExpedienteStore(newFakeExpedienteStore()),
	)

	_, err := svc.GenerarEscrito(context.Background(), GenerarEscritoRequest{
		ExpedienteID: uuid.New(),
		TipoEscrito:  "demanda",
	})
	if !errors.Is(err, ErrExpedienteNotFound) {
		t.Fatalf("got %v, want ErrExpedienteNotFound", err)
	}
}
