package technical

import (
	"math"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// NeutralRSI replaces undefined RSI values before the table is handed downstream.
const NeutralRSI = 50.0

// Compute runs every indicator family over the bar history and returns the table
// aligned with bars. Only RSI has its undefined values normalized (to NeutralRSI);
// all other series keep NaN inside their look-back windows.
func Compute(bars []models.DailyBar) *models.IndicatorTable {
	o := models.ToOHLCV(bars)
	t := models.NewIndicatorTable(models.BarDates(bars))
	t.Set(models.IndClose, o.Close)

	macd := MACD(o.Close, 12, 26, 9)
	t.Set(models.IndDIF, macd.DIF)
	t.Set(models.IndDEA, macd.DEA)
	t.Set(models.IndMACD, macd.MACD)

	kdj := KDJ(o.Close, o.High, o.Low, 9, 3, 3)
	t.Set(models.IndK, kdj.K)
	t.Set(models.IndD, kdj.D)
	t.Set(models.IndJ, kdj.J)

	boll := Bollinger(o.Close, 20, 2)
	t.Set(models.IndBollUp, boll.Upper)
	t.Set(models.IndBollMid, boll.Middle)
	t.Set(models.IndBollLow, boll.Lower)

	t.Set(models.IndRSI, fillNaN(RSI(o.Close, 14), NeutralRSI))

	t.Set(models.IndBIAS1, Bias(o.Close, 6))
	t.Set(models.IndBIAS2, Bias(o.Close, 12))
	t.Set(models.IndBIAS3, Bias(o.Close, 24))
	t.Set(models.IndCCI, CCI(o.Close, o.High, o.Low, 14))

	t.Set(models.IndMA5, MA(o.Close, 5))
	t.Set(models.IndMA10, MA(o.Close, 10))
	t.Set(models.IndMA20, MA(o.Close, 20))
	t.Set(models.IndMA60, MA(o.Close, 60))

	emv := EMV(o.High, o.Low, o.Volume, 14, 9)
	t.Set(models.IndEMV, emv.Line)
	t.Set(models.IndMAEMV, emv.MA)

	dpo := DPO(o.Close, 20, 10, 6)
	t.Set(models.IndDPO, dpo.Line)
	t.Set(models.IndMADPO, dpo.MA)

	trix := TRIX(o.Close, 12, 20)
	t.Set(models.IndTRIX, trix.Line)
	t.Set(models.IndTRMA, trix.MA)

	dmi := DMI(o.Close, o.High, o.Low, 14, 6)
	t.Set(models.IndPDI, dmi.PDI)
	t.Set(models.IndMDI, dmi.MDI)
	t.Set(models.IndADX, dmi.ADX)
	t.Set(models.IndADXR, dmi.ADXR)

	t.Set(models.IndVR, VR(o.Close, o.Volume, 26))

	brar := BRAR(o.Open, o.Close, o.High, o.Low, 26)
	t.Set(models.IndAR, brar.AR)
	t.Set(models.IndBR, brar.BR)

	roc := ROC(o.Close, 12, 6)
	t.Set(models.IndROC, roc.Line)
	t.Set(models.IndMAROC, roc.MA)

	mtm := MTM(o.Close, 12, 6)
	t.Set(models.IndMTM, mtm.Line)
	t.Set(models.IndMTMMA, mtm.MA)

	dma := DMA(o.Close, 10, 50, 10)
	t.Set(models.IndDIFDMA, dma.Line)
	t.Set(models.IndDIFMADMA, dma.MA)

	return t
}

func fillNaN(data []float64, v float64) []float64 {
	return apply(data, func(x float64) float64 {
		if math.IsNaN(x) {
			return v
		}
		return x
	})
}
