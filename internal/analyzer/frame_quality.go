package analyzer

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"

	"go-tryon/pkg/models"
)

// QualityThresholds bound the lighting and focus checks on a capture frame.
// Brightness is mean luma on a 0-255 scale; Sharpness is Laplacian variance.
type QualityThresholds struct {
	DarkBelow        float64
	OverexposedAbove float64
	BlurBelow        float64
}

// DefaultQualityThresholds returns thresholds tuned for indoor webcam frames
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		DarkBelow:        40,
		OverexposedAbove: 225,
		BlurBelow:        30,
	}
}

// FrameQualityAssessor grades a capture frame. It never rejects a frame;
// callers surface the flags as hints.
type FrameQualityAssessor interface {
	Assess(img image.Image) models.FrameQuality
}

type frameQualityAssessor struct {
	thresholds QualityThresholds
	slicePool  sync.Pool
}

// NewFrameQualityAssessor creates an assessor with the given thresholds
func NewFrameQualityAssessor(thresholds QualityThresholds) FrameQualityAssessor {
	return &frameQualityAssessor{
		thresholds: thresholds,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

func (a *frameQualityAssessor) Assess(img image.Image) models.FrameQuality {
	gray := toGray(img)
	if gray.Bounds().Empty() {
		return models.FrameQuality{}
	}

	q := models.FrameQuality{
		Brightness: brightness(gray),
		Sharpness:  a.laplacianVariance(gray),
	}
	q.Dark = q.Brightness < a.thresholds.DarkBelow
	q.Overexposed = q.Brightness > a.thresholds.OverexposedAbove
	q.Blurry = q.Sharpness < a.thresholds.BlurBelow
	return q
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// brightness averages luma in horizontal strips, one per worker, once the
// frame is large enough for the goroutines to pay off.
func brightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width*height < 100000 {
		return sumRows(gray, bounds.Min.Y, bounds.Max.Y) / float64(width*height)
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	results := make(chan float64, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		if startY >= bounds.Max.Y {
			break
		}
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			results <- sumRows(gray, startY, endY)
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total float64
	for sum := range results {
		total += sum
	}
	return total / float64(width*height)
}

func sumRows(gray *image.Gray, startY, endY int) float64 {
	bounds := gray.Bounds()
	var total float64
	for y := startY; y < endY; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
		}
	}
	return total
}

func (a *frameQualityAssessor) laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := a.slicePool.Get().([]float64)
	defer func() { a.slicePool.Put(data[:0]) }()

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, top+bottom+left+right-4*center)
		}
	}

	return stat.Variance(data, nil)
}
