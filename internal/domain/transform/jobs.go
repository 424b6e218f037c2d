package transform

import (
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

func userRow(row model.ResultRow, _ model.SchemaVersion) model.ResultRow {
	total := row.Int64("total_registrations")
	verified := row.Int64("verified_users")
	return model.ResultRow{
		"registration_date":   row["registration_date"],
		"total_registrations": total,
		"verified_users":      verified,
		"premium_signups":     row.Int64("premium_signups"),
		"verification_rate":   model.Percent(verified, total),
	}
}

// orderRow keeps exact decimals for v2; v1 amounts have always been stored as floats.
func orderRow(row model.ResultRow, version model.SchemaVersion) model.ResultRow {
	out := model.ResultRow{
		"order_date":  row["order_date"],
		"status":      row["status"],
		"order_count": row.Int64("order_count"),
	}
	if version == model.SchemaV2 {
		out["total_revenue"] = row.Numeric("total_revenue")
		out["avg_order_value"] = row.Numeric("avg_order_value")
	} else {
		out["total_revenue"] = model.Round2(row.Float64("total_revenue"))
		out["avg_order_value"] = model.Round2(row.Float64("avg_order_value"))
	}
	return out
}

func paymentRow(row model.ResultRow, version model.SchemaVersion) model.ResultRow {
	total := row.Int64("transaction_count")
	successful := row.Int64("successful")
	out := model.ResultRow{
		"payment_date":           row["payment_date"],
		"payment_method":         row["payment_method"],
		"transaction_count":      total,
		"successful_count":       successful,
		"failed_count":           row.Int64("failed"),
		"success_rate":           model.Percent(successful, total),
		"avg_processing_time_ms": nil,
	}
	if version == model.SchemaV2 {
		out["total_amount"] = row.Numeric("total_amount")
		if v := row.NullableFloat64("avg_processing_time"); v != nil {
			out["avg_processing_time_ms"] = model.Round2(v.(float64))
		}
	} else {
		out["total_amount"] = model.Round2(row.Float64("total_amount"))
	}
	return out
}

type engagement struct {
	sent, delivered, opened, clicked int64
}

func (e engagement) rates(out model.ResultRow) {
	out["delivery_rate"] = model.Percent(e.delivered, e.sent)
	out["open_rate"] = model.Percent(e.opened, e.delivered)
	out["click_rate"] = model.Percent(e.clicked, e.opened)
	out["click_through_rate"] = model.Percent(e.clicked, e.sent)
}

func engagementOf(row model.ResultRow) engagement {
	return engagement{
		sent:      row.Int64("total_sent"),
		delivered: row.Int64("delivered"),
		opened:    row.Int64("opened"),
		clicked:   row.Int64("clicked"),
	}
}

// notificationRow leaves bounced and failed NULL for v1, which never tracked them.
func notificationRow(row model.ResultRow, version model.SchemaVersion) model.ResultRow {
	e := engagementOf(row)
	out := model.ResultRow{
		"notification_date": row["notification_date"],
		"channel":           row["channel"],
		"notification_type": row["notification_type"],
		"total_sent":        e.sent,
		"delivered":         e.delivered,
		"opened":            e.opened,
		"clicked":           e.clicked,
		"bounced":           nil,
		"failed":            nil,
	}
	if version == model.SchemaV2 {
		out["bounced"] = row.Int64("bounced")
		out["failed"] = row.Int64("failed")
	}
	e.rates(out)
	return out
}

// channelRows rolls notification rows up to one row per day and channel, in first-seen order.
func channelRows(rows []model.ResultRow, version model.SchemaVersion) []model.ResultRow {
	type key struct{ date, channel string }
	type acc struct {
		date, channel any
		e             engagement
	}

	var order []key
	groups := make(map[key]*acc)
	for _, row := range rows {
		k := key{date: row.String("notification_date"), channel: row.String("channel")}
		g, ok := groups[k]
		if !ok {
			g = &acc{date: row["notification_date"], channel: row["channel"]}
			groups[k] = g
			order = append(order, k)
		}
		e := engagementOf(row)
		g.e.sent += e.sent
		g.e.delivered += e.delivered
		g.e.opened += e.opened
		g.e.clicked += e.clicked
	}

	out := make([]model.ResultRow, 0, len(order))
	for _, k := range order {
		g := groups[k]
		row := model.ResultRow{
			"notification_date": g.date,
			"channel":           g.channel,
			"total_sent":        g.e.sent,
			"delivered":         g.e.delivered,
			"opened":            g.e.opened,
			"clicked":           g.e.clicked,
			"schema_version":    string(version),
		}
		g.e.rates(row)
		out = append(out, row)
	}
	return out
}
