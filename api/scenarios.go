/*
scenarios.go - Demo datasets for trying the engine without an export

PURPOSE:
  Provides built-in CSV datasets that exercise specific features of the
  calculation. Each scenario is a set of sheets in the same format as a
  real upload, run through the same reader and service.

AVAILABLE SCENARIOS:
  two-month-bonus:     Bracket commission, renewals, monthly targets with
                       carry-forward, top seller and a payment
  agent-sale:          Agent marketer on a half-Asanito plan
  partial-collection:  Partly collected invoice plus an unreadable month

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/run
  {"scenario_id": "two-month-bonus", "save": false}

NOTE:
  Scenarios read the current settings and bracket tables, so results
  follow any admin edits. Seeded defaults give the documented figures.

ADDING NEW SCENARIOS:
  1. Add an entry to 'scenarios' with its sheets keyed by upload field
  2. Use the Persian headers or the English aliases from dataset/schema.go
*/
package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/warp/commission-engine/calculation"
	"github.com/warp/commission-engine/dataset"
)

const salesHeader = "بازاریاب,مذاکره کننده ارشد,هماهنگ کننده فروش,شرکت خریدار,مبلغ کل خالص فاکتور,وصول شده,کل مبلغ مبنای پورسانت,ماه,سال,تمدید اشتراک,نسخه پلن,درصد پلن های آسانیتویی\n"

const targetsHeader = "سال,ماه,تارگت جمعی,تارگت فرعی\n"

type scenario struct {
	ScenarioDTO
	sheets map[string]string // upload field -> CSV
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "two-month-bonus",
			Name:        "Two months with bonuses",
			Description: "Bracket commission in month 1 and 2, renewals under the salary model, targets carried into month 2, one payment",
		},
		sheets: map[string]string{
			"sales": salesHeader +
				`,Amanj,Amanj,Acme,"500,000,000","500,000,000","500,000,000",1,1404,خیر,استاندارد,` + "\n" +
				`,Parinaz,Parinaz,Beta,"500,000,000","500,000,000","500,000,000",1,1404,بله,حرفه` + "\u200c" + `ای,` + "\n" +
				`,Amanj,Amanj,Gamma,"800,000,000","800,000,000","800,000,000",2,1404,خیر,VIP,` + "\n",
			"employees": "نام,مدل همکاری\nAmanj,پورسانت خالص\nParinaz,حقوق ثابت + پورسانت\n",
			"targets":   targetsHeader + "1404,1,\"450,000,000\",\"350,000,000\"\n1404,2,,\n",
			"payments":  "نام,مبلغ پرداخت شده\nAmanj,\"10,000,000\"\n",
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "agent-sale",
			Name:        "Agent sale",
			Description: "An agent marketer on a 50% Asanito plan halves the bracket value and the commission",
		},
		sheets: map[string]string{
			"sales": salesHeader +
				`نمایندگان شرق,Sara,,Delta,"600,000,000","600,000,000","600,000,000",3,1404,خیر,استاندارد,50` + "\n",
			"targets": targetsHeader,
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "partial-collection",
			Name:        "Partial collection",
			Description: "A 40% collected invoice leaves pending commission; a row with an unreadable month is skipped",
		},
		sheets: map[string]string{
			"sales": salesHeader +
				`,Sara,,Epsilon,"1,000,000,000","400,000,000","1,000,000,000",1,1404,خیر,استاندارد,` + "\n" +
				`,Sara,,Zeta,"100,000,000","100,000,000","100,000,000",Farvardin,1404,خیر,استاندارد,` + "\n",
			"targets": targetsHeader,
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

func (s scenario) files() dataset.Files {
	reader := func(field string) io.Reader {
		text, ok := s.sheets[field]
		if !ok {
			return nil
		}
		return strings.NewReader(text)
	}
	return dataset.Files{
		Sales:     reader("sales"),
		Employees: reader("employees"),
		Targets:   reader("targets"),
		Payments:  reader("payments"),
	}
}

// ListScenarios returns available demo datasets.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, out)
}

// RunScenario calculates a demo dataset.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var req RunScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}

	ds, err := dataset.Read(sc.files())
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	out, err := h.Calc.Calculate(r.Context(), calculation.Request{
		Dataset:  ds,
		Filename: "scenario:" + sc.ID,
		Persist:  req.Save,
	})
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationResponse(out))
}
