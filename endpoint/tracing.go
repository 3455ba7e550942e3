package endpoint

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	pkgName    = "endpoint"
	pkgVersion = "0.0.0"

	namespace = "endpoint"

	spanHandshake  = namespace + ".handshake"
	spanConnection = namespace + ".connection"

	attrRole       = namespace + ".role"
	attrRemoteHost = namespace + ".remote_host"
	attrCloseCode  = namespace + ".close_code"
)

// instruments bundles the tracer and metric instruments an Endpoint uses to
// report handshake and connection activity. Building it never fails: a nil
// provider falls back to the global no-op implementation, the same way
// wscengine falls back to otel.GetTracerProvider().
type instruments struct {
	tracer trace.Tracer

	accepted     metric.Int64Counter
	rejected     metric.Int64Counter
	messageSizes metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) instruments {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(pkgName, metric.WithInstrumentationVersion(pkgVersion))

	accepted, _ := meter.Int64Counter(namespace+".connections.accepted",
		metric.WithDescription("connections that completed the opening handshake"))
	rejected, _ := meter.Int64Counter(namespace+".connections.rejected",
		metric.WithDescription("connections rejected during accept or handshake"))
	messageSizes, _ := meter.Float64Histogram(namespace+".message.size",
		metric.WithDescription("payload size, in bytes, of messages delivered to on_message"),
		metric.WithUnit("By"))

	return instruments{
		tracer:       tp.Tracer(pkgName, trace.WithInstrumentationVersion(pkgVersion)),
		accepted:     accepted,
		rejected:     rejected,
		messageSizes: messageSizes,
	}
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
