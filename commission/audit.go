package commission

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// auditPrinter formats audit-trail numbers with thousands grouping.
var auditPrinter = message.NewPrinter(language.English)

func amount(d decimal.Decimal) string {
	return auditPrinter.Sprintf("%.0f", d.InexactFloat64())
}

func percent(d decimal.Decimal) string {
	return auditPrinter.Sprintf("%.2f%%", d.Mul(hundred).InexactFloat64())
}

// commissionDetails explains pass-2 arithmetic for one contribution.
func commissionDetails(c *Contribution, cfg *Config) []string {
	tx := c.Transaction
	lines := []string{
		"Commission base: " + amount(tx.CommissionBase),
	}
	if tx.IsRenewal {
		lines = append(lines, "Renewal rate (role "+string(c.Role)+"): "+percent(c.BaseRate))
	} else {
		lines = append(lines, "Bracket rate (role "+string(c.Role)+"): "+percent(c.BaseRate))
	}
	if tx.IsAgentSale {
		lines = append(lines, auditPrinter.Sprintf("Agent multiplier (%s): %s x %s = %s",
			percent(cfg.AgentMultiplier), percent(c.BaseRate), percent(cfg.AgentMultiplier), percent(c.RateUsed)))
	}
	lines = append(lines,
		"Full commission: "+amount(tx.CommissionBase)+" x "+percent(c.RateUsed)+" = "+amount(c.FullCommission),
		"Collection ratio: "+percent(c.CollectionRatio)+" ("+amount(tx.PaidAmount)+" / "+amount(tx.NetValue)+")",
		"Payable commission: "+amount(c.FullCommission)+" x "+percent(c.CollectionRatio)+" = "+amount(c.PayableCommission),
		"Remaining commission: "+amount(c.FullCommission)+" - "+amount(c.PayableCommission)+" = "+amount(c.RemainingCommission),
	)
	return lines
}

// bonusDetails explains one person's month bonus; only built when positive.
func bonusDetails(base decimal.Decimal, parts []bonusPart, total decimal.Decimal) []string {
	lines := []string{"---------- bonus ----------"}
	for _, p := range parts {
		lines = append(lines, p.name+" bonus: "+amount(base)+" x "+percent(p.rate)+" = "+amount(p.amount))
	}
	return append(lines, "Total bonus: "+amount(total))
}
