package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerarTexto_ReturnsCompletion(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "texto generado"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	got, err := svc.GenerarTexto(context.Background(), "redacta una cláusula")
	if err != nil {
		t.Fatalf("GenerarTexto returned error: %v", err)
	}
	if got != "texto generado" {
		t.Errorf("got %q", got)
	}
}

func TestGenerarTexto_EmptyPrompt(t *testing.T) {
	svc := NewGenerationService()
	_, err := svc.GenerarTexto(context.Background(), "  ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestGenerarTexto_WithoutGenerator(t *testing.T) {
	svc := NewGenerationService()
	got, err := svc.GenerarTexto(context.Background(), "redacta")
	if err != nil {
		t.Fatalf("GenerarTexto returned error: %v", err)
	}
	if got != generatorUnavailable {
		t.Errorf("got %q, want the unavailable fallback", got)
	}
}

func TestGenerarTexto_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{available: true, err: errors.New("boom")}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	got, err := svc.GenerarTexto(context.Background(), "redacta")
	if err != nil {
		t.Fatalf("GenerarTexto returned error: %v", err)
	}
	if got != "Error generando texto" {
		t.Errorf("got %q, want the error fallback", got)
	}
}

func TestGenerarLaudo_RequiresMateria(t *testing.T) {
	svc := NewGenerationService()
	_, err := svc.GenerarLaudo(context.Background(), LaudoRequest{Detalles: "disputa"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestGenerarLaudo_DefaultsTipoComercial(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "laudo"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	result, err := svc.GenerarLaudo(context.Background(), LaudoRequest{Materia: "construcción"})
	if err != nil {
		t.Fatalf("GenerarLaudo returned error: %v", err)
	}
	if len(gen.prompts) != 3 {
		t.Fatalf("generator saw %d prompts, want 3 (laudo, fundamento, recomendaciones)", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "tipo comercial") {
		t.Error("laudo prompt does not default the dispute type")
	}
	if result.Laudo != "laudo" {
		t.Errorf("Laudo = %q", result.Laudo)
	}
}

func TestTraducir_DefaultsLanguages(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "translated"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	if _, err := svc.Traducir(context.Background(), TraduccionRequest{Texto: "contrato"}); err != nil {
		t.Fatalf("Traducir returned error: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "del es al en") {
		t.Errorf("prompt does not default es->en: %s", gen.prompts[0])
	}
}

func TestResumen_DefaultsNivelCliente(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "resumen breve"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	result, err := svc.Resumen(context.Background(), ResumenRequest{
		Texto:        "texto largo",
		NivelTecnico: "gerente",
	})
	if err != nil {
		t.Fatalf("Resumen returned error: %v", err)
	}
	if result.NivelTecnico != "cliente" {
		t.Errorf("NivelTecnico = %q, want cliente", result.NivelTecnico)
	}
	if !strings.Contains(gen.prompts[0], "sin formación legal") {
		t.Error("prompt does not use the cliente instruction")
	}
}

func TestResumen_SplitsPuntosClave(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "- punto uno\n\n- punto dos\n"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	result, err := svc.Resumen(context.Background(), ResumenRequest{Texto: "texto", NivelTecnico: "juez"})
	if err != nil {
		t.Fatalf("Resumen returned error: %v", err)
	}
	if len(result.PuntosClave) != 2 {
		t.Errorf("got %d puntos clave, want 2: %v", len(result.PuntosClave), result.PuntosClave)
	}
}

func TestArgumentador_ValidatesTipo(t *testing.T) {
	svc := NewGenerationService()
	_, err := svc.Argumentador(context.Background(), ArgumentadorRequest{
		Hechos:        "hechos",
		TipoArgumento: "neutral",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestArgumentador_ConfianzaGrowsWithArguments(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "1. a\n2. b\n3. c"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	result, err := svc.Argumentador(context.Background(), ArgumentadorRequest{
		Hechos:        "hechos del caso",
		TipoArgumento: "defensa",
	})
	if err != nil {
		t.Fatalf("Argumentador returned error: %v", err)
	}
	if len(result.Argumentos) != 3 {
		t.Fatalf("got %d argumentos, want 3", len(result.Argumentos))
	}
	// 3 arguments out of the 5 that saturate confidence.
	if result.Confianza != 0.6 {
		t.Errorf("Confianza = %v, want 0.6", result.Confianza)
	}
}

func TestArgumentador_ConfianzaCappedAtOne(t *testing.T) {
	gen := &fakeGenerator{available: true, reply: "a\nb\nc\nd\ne\nf\ng"}
	svc := NewGenerationService(GenerationWithGenerator(gen))

	result, err := svc.Argumentador(context.Background(), ArgumentadorRequest{
		Hechos:        "hechos",
		TipoArgumento: "ataque",
	})
	if err != nil {
		t.Fatalf("Argumentador returned error: %v", err)
	}
	if result.Confianza != 1 {
		t.Errorf("Confianza = %v, want 1", result.Confianza)
	}
}
