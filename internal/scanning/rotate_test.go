package scanning

import (
	"image"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// markerImage is 3 wide and 2 tall with a red pixel in the top-left corner
func markerImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0 && b == 0
}

var _ = Describe("ImagingRotator", func() {
	var (
		rotator ImagingRotator
		src     *image.NRGBA
		out     image.Image
		degrees int
		err     error
	)

	BeforeEach(func() {
		src = markerImage()
	})

	JustBeforeEach(func() {
		out, err = rotator.Rotate(src, degrees)
	})

	When("rotating by 90 degrees", func() {
		BeforeEach(func() {
			degrees = 90
		})

		It("should swap the dimensions", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Bounds().Dx()).To(Equal(2))
			Expect(out.Bounds().Dy()).To(Equal(3))
		})

		It("should turn clockwise", func() {
			// top-left moves to top-right
			Expect(isRed(out.At(1, 0))).To(BeTrue())
			Expect(isRed(out.At(0, 0))).To(BeFalse())
		})

		It("should leave the source untouched", func() {
			Expect(isRed(src.At(0, 0))).To(BeTrue())
			Expect(src.Bounds().Dx()).To(Equal(3))
		})
	})

	When("rotating by 180 degrees", func() {
		BeforeEach(func() {
			degrees = 180
		})

		It("should move the corner to the bottom-right", func() {
			Expect(out.Bounds().Dx()).To(Equal(3))
			Expect(isRed(out.At(2, 1))).To(BeTrue())
		})
	})

	When("rotating by 270 degrees", func() {
		BeforeEach(func() {
			degrees = 270
		})

		It("should move the corner to the bottom-left", func() {
			Expect(out.Bounds().Dy()).To(Equal(3))
			Expect(isRed(out.At(0, 2))).To(BeTrue())
		})
	})

	When("rotating 90 degrees three times", func() {
		BeforeEach(func() {
			degrees = 90
		})

		It("should equal a single 270 degree turn", func() {
			twice, err := rotator.Rotate(out, 90)
			Expect(err).NotTo(HaveOccurred())
			thrice, err := rotator.Rotate(twice, 90)
			Expect(err).NotTo(HaveOccurred())
			Expect(isRed(thrice.At(0, 2))).To(BeTrue())
		})
	})

	When("the angle is not a multiple of 90", func() {
		BeforeEach(func() {
			degrees = 45
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
