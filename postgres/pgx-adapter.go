package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ pgx.QueryTracer = (*pgxTraceAdapter)(nil)

type pgxTraceAdapter struct {
	tracer trace.Tracer
}

func (p pgxTraceAdapter) TraceQueryStart(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	ctx, _ = p.tracer.Start(ctx, "pgx", trace.WithAttributes(
		attribute.String("db_host", conn.Config().Host),
		attribute.String("db_database", conn.Config().Database),
		attribute.String("sql", data.SQL),
		attribute.StringSlice("sql_args", anySliceToStrings(data.Args)),
	))

	return ctx
}

func (p pgxTraceAdapter) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)

	span.SetAttributes(attribute.Int64("sql_rows_affected", data.CommandTag.RowsAffected()))

	if data.Err != nil {
		span.SetStatus(codes.Error, data.Err.Error())
	}

	span.End()
}

func anySliceToStrings(in []any) []string {
	s := make([]string, len(in))

	for i, v := range in {
		s[i] = fmt.Sprintf("%v", v)
	}

	return s
}
