package repository

// SchemaStatement is one named DDL step applied by cmd/create-schema.
type SchemaStatement struct {
	Name string
	SQL  string
}

// Tables returns the table DDL in dependency order.
func Tables() []SchemaStatement {
	return []SchemaStatement{
		{
			Name: "sentencias",
			SQL: `
CREATE TABLE IF NOT EXISTS sentencias (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    tribunal VARCHAR(255) NOT NULL,
    fecha DATE NOT NULL,
    materia VARCHAR(255) NOT NULL DEFAULT '',
    partes TEXT NOT NULL DEFAULT '',
    expediente VARCHAR(255) NOT NULL DEFAULT '',
    full_text TEXT NOT NULL,
    url TEXT,
    resultado VARCHAR(100) NOT NULL DEFAULT '',
    embedding FLOAT8[],
    vectorizer_version TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT sentencia_unique UNIQUE (tribunal, expediente)
);`,
		},
		{
			Name: "expedientes",
			SQL: `
CREATE TABLE IF NOT EXISTS expedientes (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    numero VARCHAR(255) NOT NULL,
    tribunal VARCHAR(255) NOT NULL DEFAULT '',
    materia VARCHAR(255) NOT NULL DEFAULT '',
    partes TEXT NOT NULL DEFAULT '',
    estado VARCHAR(50) NOT NULL DEFAULT 'activo' CHECK (estado IN ('activo', 'cerrado', 'eliminado')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			Name: "documentos_expediente",
			SQL: `
CREATE TABLE IF NOT EXISTS documentos_expediente (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    expediente_id UUID NOT NULL REFERENCES expedientes(id) ON DELETE CASCADE,
    tipo_documento VARCHAR(100) NOT NULL DEFAULT '',
    contenido TEXT NOT NULL,
    fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    embedding FLOAT8[],
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			Name: "predicciones",
			SQL: `
CREATE TABLE IF NOT EXISTS predicciones (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    expediente_id UUID NOT NULL REFERENCES expedientes(id) ON DELETE CASCADE,
    sentencias_fundamento UUID[] NOT NULL DEFAULT '{}',
    probabilidad_fallo DOUBLE PRECISION NOT NULL,
    fundamento TEXT NOT NULL DEFAULT '',
    confianza DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			Name: "escritos_legales",
			SQL: `
CREATE TABLE IF NOT EXISTS escritos_legales (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    nombre VARCHAR(255) NOT NULL UNIQUE,
    tipo VARCHAR(100) NOT NULL DEFAULT '',
    contenido_template TEXT NOT NULL,
    embedding FLOAT8[],
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			// error_message and completed_at stay NULL until the job
			// fails or finishes, matching the nullable model fields.
			Name: "import_jobs",
			SQL: `
CREATE TABLE IF NOT EXISTS import_jobs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    kind VARCHAR(50) NOT NULL CHECK (kind IN ('bulk_import', 'update_embeddings')),
    status VARCHAR(50) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
    current INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    message TEXT NOT NULL DEFAULT '',
    error_message TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);`,
		},
	}
}

// Indexes returns the secondary index DDL. The expediente numero index is
// partial: a deleted case frees its number for reuse.
func Indexes() []SchemaStatement {
	return []SchemaStatement{
		{
			Name: "Tribunal filtering",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_tribunal ON sentencias(tribunal);",
		},
		{
			Name: "Materia filtering",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_materia ON sentencias(materia);",
		},
		{
			Name: "Fecha range filtering",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_fecha ON sentencias(fecha DESC);",
		},
		{
			Name: "Embedding refresh scans",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_vectorizer ON sentencias(vectorizer_version);",
		},
		{
			Name: "Unique numero among live expedientes",
			SQL:  "CREATE UNIQUE INDEX IF NOT EXISTS idx_expedientes_numero ON expedientes(numero) WHERE estado <> 'eliminado';",
		},
		{
			Name: "Expediente state filtering",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_expedientes_estado ON expedientes(estado);",
		},
		{
			Name: "Documents by expediente",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_documentos_expediente ON documentos_expediente(expediente_id);",
		},
		{
			Name: "Predictions by expediente",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_predicciones_expediente ON predicciones(expediente_id, created_at DESC);",
		},
		{
			Name: "Template type filtering",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_escritos_tipo ON escritos_legales(tipo);",
		},
	}
}
